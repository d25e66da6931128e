package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"

	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
	"github.com/mohammad-safakhou/worstcrm/internal/payload"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

// storeError maps persistence and sanitizer failures to HTTP errors.
// Validation errors pass through so the error handler can list fields.
func storeError(err error) error {
	var pqErr *pq.Error
	var verr *payload.ValidationError
	switch {
	case errors.As(err, &verr):
		return err
	case errors.Is(err, payload.ErrSchemaNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrUnknownStatusKind):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNullField), errors.Is(err, objectstore.ErrInvalidKey):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &pqErr):
		switch pqErr.Code {
		case "23505":
			return echo.NewHTTPError(http.StatusConflict, "already exists")
		case "23503":
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "referenced record missing or still in use: "+pqErr.Constraint)
		case "23502", "23514", "22P02":
			return echo.NewHTTPError(http.StatusUnprocessableEntity, pqErr.Message)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

func notFound(what string) error {
	return echo.NewHTTPError(http.StatusNotFound, what+" not found")
}

// found writes rec, or a 404 for a missing record.
func found(c echo.Context, what string, rec any, ok bool, err error) error {
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return notFound(what)
	}
	return c.JSON(http.StatusOK, rec)
}

// errorHandler renders every error as an HTTPError envelope and logs it.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		body := HTTPError{Error: err.Error()}
		var verr *payload.ValidationError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &verr):
			code = http.StatusUnprocessableEntity
			body = HTTPError{Error: fmt.Sprintf("payload does not match artifact schema %q", verr.SchemaID), Fields: verr.Fields}
		case errors.As(err, &he):
			code = he.Code
			if he.Message != nil {
				body.Error = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if c.Response().Committed {
			return
		}
		if req.Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}
