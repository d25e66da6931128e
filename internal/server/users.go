package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

const minPasswordLength = 8

// UsersHandler administers users. Mounted behind the admin scope.
type UsersHandler struct {
	Store *store.Store
}

func (h *UsersHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:user_id", h.get)
	g.PUT("/:user_id", h.update)
	g.DELETE("/:user_id", h.delete)
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return string(hash), nil
}

func (h *UsersHandler) list(c echo.Context) error {
	items, err := h.Store.ListUsers(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *UsersHandler) get(c echo.Context) error {
	rec, ok, err := h.Store.GetUser(c.Request().Context(), c.Param("user_id"))
	return found(c, "user", rec, ok, err)
}

func (h *UsersHandler) create(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id required")
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	rec, err := h.Store.CreateUser(c.Request().Context(), store.UserWithHash{
		User: store.User{
			UserID:     req.UserID,
			FullName:   req.FullName,
			Email:      req.Email,
			IsDisabled: req.IsDisabled,
			Scopes:     req.Scopes,
			Audit:      store.Audit{CreatedBy: actor(c)},
		},
		HashedPassword: hash,
	})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *UsersHandler) update(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := req.UserUpdate
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return err
		}
		u.HashedPassword = store.Set(hash)
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateUser(c.Request().Context(), c.Param("user_id"), u)
	return found(c, "user", rec, ok, err)
}

func (h *UsersHandler) delete(c echo.Context) error {
	rec, ok, err := h.Store.DeleteUser(c.Request().Context(), c.Param("user_id"))
	return found(c, "user", rec, ok, err)
}
