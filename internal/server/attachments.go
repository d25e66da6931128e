package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/objectstore"
)

// attachments serves the presigned-URL and delete routes of one record
// level. chain renders the owning record's key segments from the path.
type attachments struct {
	objects objectstore.Presigner
	chain   func(c echo.Context) ([]string, error)
	add     func(ctx context.Context, c echo.Context, filename string) error
	remove  func(ctx context.Context, c echo.Context, filename string) error
}

// register mounts the routes under prefix, e.g. "/:account_id".
func (a attachments) register(g *echo.Group, prefix string, writer echo.MiddlewareFunc) {
	g.GET(prefix+"/presigned-get-url/:filename", a.presignGet)
	g.GET(prefix+"/presigned-put-url/:filename", a.presignPut, writer)
	g.DELETE(prefix+"/attachments/:filename", a.delete)
}

func (a attachments) key(c echo.Context) (string, error) {
	if a.objects == nil {
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "object storage not configured")
	}
	chain, err := a.chain(c)
	if err != nil {
		return "", err
	}
	key, err := objectstore.Key(append(chain, c.Param("filename"))...)
	if err != nil {
		return "", storeError(err)
	}
	return key, nil
}

func (a attachments) presignGet(c echo.Context) error {
	key, err := a.key(c)
	if err != nil {
		return err
	}
	url, err := a.objects.PresignGet(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, URLResponse{URL: url})
}

// presignPut registers the filename on the record before handing out the
// upload URL.
func (a attachments) presignPut(c echo.Context) error {
	key, err := a.key(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := a.add(ctx, c, c.Param("filename")); err != nil {
		return storeError(err)
	}
	url, err := a.objects.PresignPut(ctx, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, URLResponse{URL: url})
}

func (a attachments) delete(c echo.Context) error {
	key, err := a.key(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := a.remove(ctx, c, c.Param("filename")); err != nil {
		return storeError(err)
	}
	if err := a.objects.Remove(ctx, key); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
