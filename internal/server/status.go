package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type StatusHandler struct {
	Store *store.Store
}

func (h *StatusHandler) Register(g *echo.Group) {
	admin := runtime.RequireScopes(runtime.ScopeAdmin)
	g.GET("/:kind", h.list)
	g.POST("/:kind", h.create, admin)
	g.DELETE("/:kind/:name", h.delete, admin)
}

func (h *StatusHandler) list(c echo.Context) error {
	items, err := h.Store.ListStatuses(c.Request().Context(), store.StatusKind(c.Param("kind")))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StatusHandler) create(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if err := h.Store.CreateStatus(c.Request().Context(), store.StatusKind(c.Param("kind")), name); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, store.Status{Name: name})
}

func (h *StatusHandler) delete(c echo.Context) error {
	if err := h.Store.DeleteStatus(c.Request().Context(), store.StatusKind(c.Param("kind")), c.Param("name")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
