package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

type TasksHandler struct {
	Store   *store.Store
	Objects objectstore.Presigner
}

func (h *TasksHandler) Register(g *echo.Group) {
	g.GET("/:account_id", h.listForAccount)
	g.GET("/:account_id/:project_id", h.listForProject)
	g.POST("/:account_id/:project_id", h.create)
	g.GET("/:account_id/:project_id/:task_id", h.get)
	g.PUT("/:account_id/:project_id/:task_id", h.update)
	g.DELETE("/:account_id/:project_id/:task_id", h.delete)

	attachments{
		objects: h.Objects,
		chain: func(c echo.Context) ([]string, error) {
			ids, taskID, err := childKey(c, "task_id")
			if err != nil {
				return nil, err
			}
			return []string{ids[0].String(), ids[1].String(), strconv.FormatInt(taskID, 10)}, nil
		},
		add: func(ctx context.Context, c echo.Context, filename string) error {
			ids, taskID, _ := childKey(c, "task_id")
			return h.Store.AddTaskAttachment(ctx, ids[0], ids[1], taskID, filename)
		},
		remove: func(ctx context.Context, c echo.Context, filename string) error {
			ids, taskID, _ := childKey(c, "task_id")
			return h.Store.RemoveTaskAttachment(ctx, ids[0], ids[1], taskID, filename)
		},
	}.register(g, "/:account_id/:project_id/:task_id", runtime.RequireScopes(runtime.ScopeWrite))
}

// listForAccount returns the account's tasks with their project names;
// project_id may be repeated in the query to narrow it.
func (h *TasksHandler) listForAccount(c echo.Context) error {
	accountID, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	q, err := bindRecordQuery(c)
	if err != nil {
		return err
	}
	projectIDs, err := uuidQuery(c, "project_id")
	if err != nil {
		return err
	}
	items, err := h.Store.ListTasksForAccount(c.Request().Context(), accountID, q.taskFilter(projectIDs))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *TasksHandler) listForProject(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	items, err := h.Store.ListTasksForProject(c.Request().Context(), ids[0], ids[1])
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *TasksHandler) get(c echo.Context) error {
	ids, taskID, err := childKey(c, "task_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.GetTask(c.Request().Context(), ids[0], ids[1], taskID)
	return found(c, "task", rec, ok, err)
}

// create adds a task under the project. The body is optional; an empty
// body creates a blank task.
func (h *TasksHandler) create(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.Store.CreateTask(c.Request().Context(), ids[0], ids[1], store.Task{Common: req.common(actor(c))})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *TasksHandler) update(c echo.Context) error {
	ids, taskID, err := childKey(c, "task_id")
	if err != nil {
		return err
	}
	var u store.RecordUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateTask(c.Request().Context(), ids[0], ids[1], taskID, u)
	return found(c, "task", rec, ok, err)
}

func (h *TasksHandler) delete(c echo.Context) error {
	ids, taskID, err := childKey(c, "task_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.DeleteTask(c.Request().Context(), ids[0], ids[1], taskID)
	return found(c, "task", rec, ok, err)
}
