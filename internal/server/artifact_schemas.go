package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/payload"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type ArtifactSchemasHandler struct {
	Store *store.Store
}

func (h *ArtifactSchemasHandler) Register(g *echo.Group) {
	admin := runtime.RequireScopes(runtime.ScopeAdmin)
	g.GET("", h.list)
	g.POST("", h.create, admin)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete, admin)
}

func (h *ArtifactSchemasHandler) list(c echo.Context) error {
	items, err := h.Store.ListArtifactSchemas(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ArtifactSchemasHandler) get(c echo.Context) error {
	rec, ok, err := h.Store.GetArtifactSchema(c.Request().Context(), c.Param("id"))
	return found(c, "artifact schema", rec, ok, err)
}

// create checks the definition against the definition meta-schema before
// storing it, so every stored schema can sanitize payloads.
func (h *ArtifactSchemasHandler) create(c echo.Context) error {
	var req ArtifactSchemaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ArtifactSchemaID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artifact_schema_id required")
	}
	if err := payload.ValidateDefinition(req.ArtifactSchema); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	rec, err := h.Store.CreateArtifactSchema(c.Request().Context(), store.ArtifactSchema{
		ArtifactSchemaID: req.ArtifactSchemaID,
		ArtifactSchema:   req.ArtifactSchema,
		Audit:            store.Audit{CreatedBy: actor(c)},
	})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *ArtifactSchemasHandler) delete(c echo.Context) error {
	rec, ok, err := h.Store.DeleteArtifactSchema(c.Request().Context(), c.Param("id"))
	return found(c, "artifact schema", rec, ok, err)
}
