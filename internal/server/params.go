package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// uuidParams parses the named path parameters in order.
func uuidParams(c echo.Context, names ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := uuidParam(c, name)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// actor is the authenticated user id recorded in audit columns.
func actor(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// dateParam parses a calendar date or an RFC 3339 timestamp.
func dateParam(dst *time.Time) func([]string) []error {
	return func(values []string) []error {
		if len(values) == 0 || values[0] == "" {
			return nil
		}
		t, err := store.ParseTimestamp(values[0])
		if err != nil {
			return []error{err}
		}
		*dst = t
		return nil
	}
}

// endOfDay widens a date-only upper bound to the last microsecond of the
// day; timestamptz keeps microseconds and rounds anything finer.
func endOfDay(dst *time.Time) func([]string) []error {
	return func(values []string) []error {
		if len(values) == 0 || values[0] == "" {
			return nil
		}
		if t, err := time.Parse(store.DateLayout, values[0]); err == nil {
			*dst = t.AddDate(0, 0, 1).Add(-time.Microsecond)
			return nil
		}
		return dateParam(dst)(values)
	}
}

// auditQuery holds the filters every listable record shares.
type auditQuery struct {
	Name          []string
	Tags          []string
	CreatedAtFrom time.Time
	CreatedAtTo   time.Time
	CreatedBy     []string
	UpdatedAtFrom time.Time
	UpdatedAtTo   time.Time
	UpdatedBy     []string
}

// recordQuery adds the summary filters of accounts, projects, tasks and
// notes.
type recordQuery struct {
	auditQuery
	OwnedBy     []string
	Status      []string
	DueDateFrom time.Time
	DueDateTo   time.Time
}

func bindAuditQuery(b *echo.ValueBinder, q *auditQuery) *echo.ValueBinder {
	return b.Strings("name", &q.Name).
		Strings("tags", &q.Tags).
		CustomFunc("created_at_from", dateParam(&q.CreatedAtFrom)).
		CustomFunc("created_at_to", endOfDay(&q.CreatedAtTo)).
		Strings("created_by", &q.CreatedBy).
		CustomFunc("updated_at_from", dateParam(&q.UpdatedAtFrom)).
		CustomFunc("updated_at_to", endOfDay(&q.UpdatedAtTo)).
		Strings("updated_by", &q.UpdatedBy)
}

func bindRecordQuery(c echo.Context) (recordQuery, error) {
	var q recordQuery
	b := echo.QueryParamsBinder(c)
	err := bindAuditQuery(b, &q.auditQuery).
		Strings("owned_by", &q.OwnedBy).
		Strings("status", &q.Status).
		CustomFunc("due_date_from", dateParam(&q.DueDateFrom)).
		CustomFunc("due_date_to", endOfDay(&q.DueDateTo)).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return q, nil
}

func (q recordQuery) accountFilter() store.AccountFilter {
	return store.AccountFilter{
		Name:          q.Name,
		OwnedBy:       q.OwnedBy,
		Status:        q.Status,
		DueDateFrom:   q.DueDateFrom,
		DueDateTo:     q.DueDateTo,
		Tags:          q.Tags,
		CreatedAtFrom: q.CreatedAtFrom,
		CreatedAtTo:   q.CreatedAtTo,
		CreatedBy:     q.CreatedBy,
		UpdatedAtFrom: q.UpdatedAtFrom,
		UpdatedAtTo:   q.UpdatedAtTo,
		UpdatedBy:     q.UpdatedBy,
	}
}

func (q recordQuery) projectFilter(accountIDs []uuid.UUID) store.ProjectFilter {
	return store.ProjectFilter{
		AccountID:     accountIDs,
		Name:          q.Name,
		OwnedBy:       q.OwnedBy,
		Status:        q.Status,
		DueDateFrom:   q.DueDateFrom,
		DueDateTo:     q.DueDateTo,
		Tags:          q.Tags,
		CreatedAtFrom: q.CreatedAtFrom,
		CreatedAtTo:   q.CreatedAtTo,
		CreatedBy:     q.CreatedBy,
		UpdatedAtFrom: q.UpdatedAtFrom,
		UpdatedAtTo:   q.UpdatedAtTo,
		UpdatedBy:     q.UpdatedBy,
	}
}

func (q recordQuery) taskFilter(projectIDs []uuid.UUID) store.TaskFilter {
	return store.TaskFilter{
		ProjectID:     projectIDs,
		Name:          q.Name,
		OwnedBy:       q.OwnedBy,
		Status:        q.Status,
		DueDateFrom:   q.DueDateFrom,
		DueDateTo:     q.DueDateTo,
		Tags:          q.Tags,
		CreatedAtFrom: q.CreatedAtFrom,
		CreatedAtTo:   q.CreatedAtTo,
		CreatedBy:     q.CreatedBy,
		UpdatedAtFrom: q.UpdatedAtFrom,
		UpdatedAtTo:   q.UpdatedAtTo,
		UpdatedBy:     q.UpdatedBy,
	}
}

func (q recordQuery) noteFilter(projectIDs []uuid.UUID) store.NoteFilter {
	return store.NoteFilter{
		ProjectID:     projectIDs,
		Name:          q.Name,
		OwnedBy:       q.OwnedBy,
		Status:        q.Status,
		DueDateFrom:   q.DueDateFrom,
		DueDateTo:     q.DueDateTo,
		Tags:          q.Tags,
		CreatedAtFrom: q.CreatedAtFrom,
		CreatedAtTo:   q.CreatedAtTo,
		CreatedBy:     q.CreatedBy,
		UpdatedAtFrom: q.UpdatedAtFrom,
		UpdatedAtTo:   q.UpdatedAtTo,
		UpdatedBy:     q.UpdatedBy,
	}
}

// uuidQuery reads repeated uuid query parameters such as account_id.
func uuidQuery(c echo.Context, name string) ([]uuid.UUID, error) {
	raw := c.QueryParams()[name]
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		out = append(out, id)
	}
	return out, nil
}

// childKey parses the account, project and numeric id of a task or note
// route.
func childKey(c echo.Context, idParam string) ([]uuid.UUID, int64, error) {
	ids, err := uuidParams(c, projectPath...)
	if err != nil {
		return nil, 0, err
	}
	id, err := int64Param(c, idParam)
	if err != nil {
		return nil, 0, err
	}
	return ids, id, nil
}
