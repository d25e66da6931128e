package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

// ArtifactsHandler serves artifacts. Payloads are sanitized against their
// artifact schema by the store before anything is written.
type ArtifactsHandler struct {
	Store     *store.Store
	Sanitizer store.PayloadSanitizer
}

var artifactPath = []string{"account_id", "opportunity_id", "artifact_id"}

func (h *ArtifactsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:account_id", h.listForAccount)
	g.GET("/:account_id/:opportunity_id", h.listForOpportunity)
	g.GET("/:account_id/:opportunity_id/:artifact_id", h.get)
	g.PUT("/:account_id/:opportunity_id/:artifact_id", h.update)
	g.DELETE("/:account_id/:opportunity_id/:artifact_id", h.delete)
}

func bindArtifactQuery(c echo.Context) (store.ArtifactFilter, error) {
	var (
		q       auditQuery
		schemas []string
	)
	err := bindAuditQuery(echo.QueryParamsBinder(c), &q).
		Strings("artifact_schema_id", &schemas).
		BindError()
	if err != nil {
		return store.ArtifactFilter{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	accountIDs, err := uuidQuery(c, "account_id")
	if err != nil {
		return store.ArtifactFilter{}, err
	}
	opportunityIDs, err := uuidQuery(c, "opportunity_id")
	if err != nil {
		return store.ArtifactFilter{}, err
	}
	return store.ArtifactFilter{
		AccountID:        accountIDs,
		OpportunityID:    opportunityIDs,
		ArtifactSchemaID: schemas,
		Name:             q.Name,
		Tags:             q.Tags,
		CreatedAtFrom:    q.CreatedAtFrom,
		CreatedAtTo:      q.CreatedAtTo,
		CreatedBy:        q.CreatedBy,
		UpdatedAtFrom:    q.UpdatedAtFrom,
		UpdatedAtTo:      q.UpdatedAtTo,
		UpdatedBy:        q.UpdatedBy,
	}, nil
}

func (h *ArtifactsHandler) list(c echo.Context) error {
	f, err := bindArtifactQuery(c)
	if err != nil {
		return err
	}
	items, err := h.Store.ListArtifacts(c.Request().Context(), f)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ArtifactsHandler) listForAccount(c echo.Context) error {
	accountID, err := uuidParam(c, "account_id")
	if err != nil {
		return err
	}
	f, err := bindArtifactQuery(c)
	if err != nil {
		return err
	}
	f.AccountID = nil
	items, err := h.Store.ListArtifactsForAccount(c.Request().Context(), accountID, f)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ArtifactsHandler) listForOpportunity(c echo.Context) error {
	ids, err := uuidParams(c, artifactPath[:2]...)
	if err != nil {
		return err
	}
	items, err := h.Store.ListArtifactsForOpportunity(c.Request().Context(), ids[0], ids[1])
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ArtifactsHandler) get(c echo.Context) error {
	ids, err := uuidParams(c, artifactPath...)
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.GetArtifact(c.Request().Context(), ids[0], ids[1], ids[2])
	return found(c, "artifact", rec, ok, err)
}

// create stores a new artifact; artifact_id is generated when omitted.
func (h *ArtifactsHandler) create(c echo.Context) error {
	var req ArtifactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ArtifactSchemaID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artifact_schema_id required")
	}
	rec, err := h.Store.CreateArtifact(c.Request().Context(), h.Sanitizer, store.Artifact{
		AccountID:        req.AccountID,
		OpportunityID:    req.OpportunityID,
		ArtifactID:       req.ArtifactID,
		ArtifactSchemaID: req.ArtifactSchemaID,
		Name:             req.Name,
		Payload:          req.Payload,
		Tags:             req.Tags,
		Audit:            store.Audit{CreatedBy: actor(c)},
	})
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *ArtifactsHandler) update(c echo.Context) error {
	ids, err := uuidParams(c, artifactPath...)
	if err != nil {
		return err
	}
	var u store.ArtifactUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u.UpdatedBy = actor(c)
	rec, ok, err := h.Store.UpdateArtifact(c.Request().Context(), h.Sanitizer, ids[0], ids[1], ids[2], u)
	return found(c, "artifact", rec, ok, err)
}

func (h *ArtifactsHandler) delete(c echo.Context) error {
	ids, err := uuidParams(c, artifactPath...)
	if err != nil {
		return err
	}
	rec, ok, err := h.Store.DeleteArtifact(c.Request().Context(), ids[0], ids[1], ids[2])
	return found(c, "artifact", rec, ok, err)
}
