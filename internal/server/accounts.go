package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type AccountsHandler struct {
	Store   *store.Store
	Objects objectstore.Presigner
}

func (h *AccountsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:account_id", h.get)
	g.PUT("/:account_id", h.update)
	g.DELETE("/:account_id", h.delete)

	attachments{
		objects: h.Objects,
		chain:   keyChain("account_id"),
		add: func(ctx context.Context, c echo.Context, filename string) error {
			id, _ := uuidParam(c, "account_id")
			return h.Store.AddAccountAttachment(ctx, id, filename)
		},
		remove: func(ctx context.Context, c echo.Context, filename string) error {
			id, _ := uuidParam(c, "account_id")
			return h.Store.RemoveAccountAttachment(ctx, id, filename)
		},
	}.register(g, "/:account_id", runtime.RequireScopes(runtime.ScopeWrite))
}

func (h *AccountsHandler) list(c echo.Context) error {
	q, err := bindRecordQuery(c)
	if err != nil {
		return err
	}
	items, err := h.Store.ListAccounts(c.Request().Context(), q.accountFilter())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AccountsHandler) get(c echo.Context) error {
	id, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.GetAccount(c.Request().Context(), id)
	return found(c, "account", rec, ok, err)
}

// create stores a new account; account_id is generated when omitted.
func (h *AccountsHandler) create(c echo.Context) error {
	var req AccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.Store.CreateAccount(c.Request().Context(), store.Account{
		AccountID: req.AccountID,
		Common:    req.common(actor(c)),
	})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *AccountsHandler) update(c echo.Context) error {
	id, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	var u store.RecordUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateAccount(c.Request().Context(), id, u)
	return found(c, "account", rec, ok, err)
}

func (h *AccountsHandler) delete(c echo.Context) error {
	id, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.DeleteAccount(c.Request().Context(), id)
	return found(c, "account", rec, ok, err)
}
