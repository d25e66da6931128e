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

type NotesHandler struct {
	Store   *store.Store
	Objects objectstore.Presigner
}

func (h *NotesHandler) Register(g *echo.Group) {
	g.GET("/:account_id", h.listForAccount)
	g.GET("/:account_id/:project_id", h.listForProject)
	g.POST("/:account_id/:project_id", h.create)
	g.GET("/:account_id/:project_id/:note_id", h.get)
	g.PUT("/:account_id/:project_id/:note_id", h.update)
	g.DELETE("/:account_id/:project_id/:note_id", h.delete)

	attachments{
		objects: h.Objects,
		chain: func(c echo.Context) ([]string, error) {
			ids, noteID, err := childKey(c, "note_id")
			if err != nil {
				return nil, err
			}
			return []string{ids[0].String(), ids[1].String(), strconv.FormatInt(noteID, 10)}, nil
		},
		add: func(ctx context.Context, c echo.Context, filename string) error {
			ids, noteID, _ := childKey(c, "note_id")
			return h.Store.AddNoteAttachment(ctx, ids[0], ids[1], noteID, filename)
		},
		remove: func(ctx context.Context, c echo.Context, filename string) error {
			ids, noteID, _ := childKey(c, "note_id")
			return h.Store.RemoveNoteAttachment(ctx, ids[0], ids[1], noteID, filename)
		},
	}.register(g, "/:account_id/:project_id/:note_id", runtime.RequireScopes(runtime.ScopeWrite))
}

// listForAccount returns the account's notes with their project names;
// project_id may be repeated in the query to narrow it.
func (h *NotesHandler) listForAccount(c echo.Context) error {
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
	items, err := h.Store.ListNotesForAccount(c.Request().Context(), accountID, q.noteFilter(projectIDs))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotesHandler) listForProject(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	items, err := h.Store.ListNotesForProject(c.Request().Context(), ids[0], ids[1])
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotesHandler) get(c echo.Context) error {
	ids, noteID, err := childKey(c, "note_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.GetNote(c.Request().Context(), ids[0], ids[1], noteID)
	return found(c, "note", rec, ok, err)
}

// create adds a note under the project. The body is optional; an empty
// body creates a blank note.
func (h *NotesHandler) create(c echo.Context) error {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return err
	}
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.Store.CreateNote(c.Request().Context(), ids[0], ids[1], store.Note{Common: req.common(actor(c))})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *NotesHandler) update(c echo.Context) error {
	ids, noteID, err := childKey(c, "note_id")
	if err != nil {
		return err
	}
	var u store.RecordUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateNote(c.Request().Context(), ids[0], ids[1], noteID, u)
	return found(c, "note", rec, ok, err)
}

func (h *NotesHandler) delete(c echo.Context) error {
	ids, noteID, err := childKey(c, "note_id")
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.DeleteNote(c.Request().Context(), ids[0], ids[1], noteID)
	return found(c, "note", rec, ok, err)
}
