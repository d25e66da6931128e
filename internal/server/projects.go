package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type ProjectsHandler struct {
	Store   *store.Store
	Objects objectstore.Presigner
}

var projectPath = []string{"account_id", "project_id"}

func (h *ProjectsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:account_id", h.listForAccount)
	g.POST("/:account_id", h.create)
	g.GET("/:account_id/:project_id", h.get)
	g.PUT("/:account_id/:project_id", h.update)
	g.DELETE("/:account_id/:project_id", h.delete)

	attachments{
		objects: h.Objects,
		chain:   keyChain(projectPath...),
		add: func(ctx context.Context, c echo.Context, filename string) error {
			ids, _ := uuidParams(c, projectPath...)
			return h.Store.AddProjectAttachment(ctx, ids[0], ids[1], filename)
		},
		remove: func(ctx context.Context, c echo.Context, filename string) error {
			ids, _ := uuidParams(c, projectPath...)
			return h.Store.RemoveProjectAttachment(ctx, ids[0], ids[1], filename)
		},
	}.register(g, "/:account_id/:project_id", runtime.RequireScopes(runtime.ScopeWrite))
}

// keyChain renders uuid path parameters as object key segments.
func keyChain(names ...string) func(echo.Context) ([]string, error) {
	return func(c echo.Context) ([]string, error) {
		ids, err := uuidParams(c, names...)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		return out, nil
	}
}

// list returns projects across accounts; account_id may be repeated in the
// query to narrow it.
func (h *ProjectsHandler) list(c echo.Context) error {
	q, err := bindRecordQuery(c)
	if err != nil {
		return err
	}
	accountIDs, err := uuidQuery(c, "account_id")
	if err != nil {
		return err
	}
	items, err := h.Store.ListProjects(c.Request().Context(), q.projectFilter(accountIDs))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProjectsHandler) listForAccount(c echo.Context) error {
	accountID, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	items, err := h.Store.ListProjectsForAccount(c.Request().Context(), accountID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProjectsHandler) get(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.GetProject(c.Request().Context(), ids[0], ids[1])
	return found(c, "project", rec, ok, err)
}

func (h *ProjectsHandler) create(c echo.Context) error {
	accountID, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.Store.CreateProject(c.Request().Context(), accountID, store.Project{
		ProjectID: req.ProjectID,
		Common:    req.common(actor(c)),
	})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *ProjectsHandler) update(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	var u store.RecordUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateProject(c.Request().Context(), ids[0], ids[1], u)
	return found(c, "project", rec, ok, err)
}

func (h *ProjectsHandler) delete(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.DeleteProject(c.Request().Context(), ids[0], ids[1])
	return found(c, "project", rec, ok, err)
}
