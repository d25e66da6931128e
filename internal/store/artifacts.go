package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// PayloadSanitizer canonicalizes an artifact payload against the schema it
// names. Artifacts are never written without passing through one.
type PayloadSanitizer interface {
	Sanitize(ctx context.Context, schemaID string, payload json.RawMessage) (json.RawMessage, error)
}

// ArtifactFilter narrows the artifact listings.
type ArtifactFilter struct {
	AccountID        []uuid.UUID
	OpportunityID    []uuid.UUID
	ArtifactSchemaID []string
	Name             []string
	Tags             []string
	CreatedAtFrom    time.Time
	CreatedAtTo      time.Time
	CreatedBy        []string
	UpdatedAtFrom    time.Time
	UpdatedAtTo      time.Time
	UpdatedBy        []string
}

func (f ArtifactFilter) Fields() []FilterField {
	return []FilterField{
		{"account_id", f.AccountID},
		{"opportunity_id", f.OpportunityID},
		{"artifact_schema_id", f.ArtifactSchemaID},
		{"name", f.Name},
		{"tags", f.Tags},
		{"created_at_from", f.CreatedAtFrom},
		{"created_at_to", f.CreatedAtTo},
		{"created_by", f.CreatedBy},
		{"updated_at_from", f.UpdatedAtFrom},
		{"updated_at_to", f.UpdatedAtTo},
		{"updated_by", f.UpdatedBy},
	}
}

var (
	artifactKey = []Column[Artifact]{
		field("account_id", func(a *Artifact) *uuid.UUID { return &a.AccountID }),
		field("opportunity_id", func(a *Artifact) *uuid.UUID { return &a.OpportunityID }),
		field("artifact_id", func(a *Artifact) *uuid.UUID { return &a.ArtifactID }),
	}
	artifactBody = slices.Concat(
		[]Column[Artifact]{
			field("artifact_schema_id", func(a *Artifact) *string { return &a.ArtifactSchemaID }),
			field("name", func(a *Artifact) *string { return &a.Name }),
			jsonField("payload", func(a *Artifact) *json.RawMessage { return &a.Payload }),
			arrayField("tags", func(a *Artifact) *[]string { return &a.Tags }),
		},
		auditColumns(func(a *Artifact) *Audit { return &a.Audit }),
	)

	artifacts = newTable("artifacts", []string{"account_id", "opportunity_id", "artifact_id"},
		NewColumns(slices.Concat(artifactKey, artifactBody)...),
		NewColumns(artifactBody...),
		NewColumns(slices.Concat(artifactKey, artifactBody)...),
	)

	artifactOverviewColumns = NewColumns(slices.Concat(
		[]Column[ArtifactOverview]{
			field("account_id", func(a *ArtifactOverview) *uuid.UUID { return &a.AccountID }),
			field("opportunity_id", func(a *ArtifactOverview) *uuid.UUID { return &a.OpportunityID }),
			field("artifact_id", func(a *ArtifactOverview) *uuid.UUID { return &a.ArtifactID }),
			field("artifact_schema_id", func(a *ArtifactOverview) *string { return &a.ArtifactSchemaID }),
			field("name", func(a *ArtifactOverview) *string { return &a.Name }),
			arrayField("tags", func(a *ArtifactOverview) *[]string { return &a.Tags }),
		},
		auditColumns(func(a *ArtifactOverview) *Audit { return &a.Audit }),
	)...)

	artifactWithAccountColumns = Embed(artifactOverviewColumns,
		func(a *ArtifactOverviewWithAccountName) *ArtifactOverview { return &a.ArtifactOverview },
		readOnly("account_name", func(a *ArtifactOverviewWithAccountName) *string { return &a.AccountName }),
	)
)

var (
	selectArtifactsWithAccount = fmt.Sprintf(
		"SELECT %s, accounts.name AS account_name FROM artifacts JOIN accounts ON artifacts.account_id = accounts.account_id",
		artifactOverviewColumns.Qualified("artifacts"))
	selectArtifactOverviews = fmt.Sprintf("SELECT %s FROM artifacts", artifactOverviewColumns.Names())
)

// ListArtifacts returns artifacts across accounts with the account name.
func (s *Store) ListArtifacts(ctx context.Context, f ArtifactFilter) ([]ArtifactOverviewWithAccountName, error) {
	where, args := CompileFilter(f.Fields(), "artifacts", true, 0)
	q := fmt.Sprintf("%s %s ORDER BY account_name, artifacts.name", selectArtifactsWithAccount, where)
	return queryMany(ctx, s.DB, "list_artifacts", artifactWithAccountColumns, q, args...)
}

// ListArtifactsForAccount returns plain overviews. There is no opportunity
// table, so rows carry opportunity_id only and no opportunity name.
func (s *Store) ListArtifactsForAccount(ctx context.Context, accountID uuid.UUID, f ArtifactFilter) ([]ArtifactOverview, error) {
	where, args := scoped("account_id = $1", 1, f, "")
	q := fmt.Sprintf("%s %s ORDER BY opportunity_id, name", selectArtifactOverviews, where)
	return queryMany(ctx, s.DB, "list_artifacts_for_account", artifactOverviewColumns, q, append([]any{accountID}, args...)...)
}

func (s *Store) ListArtifactsForOpportunity(ctx context.Context, accountID, opportunityID uuid.UUID) ([]ArtifactOverview, error) {
	q := selectArtifactOverviews + " WHERE (account_id, opportunity_id) = ($1, $2) ORDER BY name"
	return queryMany(ctx, s.DB, "list_artifacts_for_opportunity", artifactOverviewColumns, q, accountID, opportunityID)
}

func (s *Store) GetArtifact(ctx context.Context, accountID, opportunityID, artifactID uuid.UUID) (Artifact, bool, error) {
	return artifacts.get(ctx, s.DB, accountID, opportunityID, artifactID)
}

// CreateArtifact sanitizes the payload and inserts a. A nil ArtifactID is
// replaced by a new one.
func (s *Store) CreateArtifact(ctx context.Context, sanitizer PayloadSanitizer, a Artifact) (Artifact, error) {
	payload, err := sanitizer.Sanitize(ctx, a.ArtifactSchemaID, a.Payload)
	if err != nil {
		return Artifact{}, err
	}
	a.Payload = payload
	if a.ArtifactID == uuid.Nil {
		a.ArtifactID = uuid.New()
	}
	a.stamp(a.CreatedBy)
	return artifacts.create(ctx, s.DB, &a)
}

// UpdateArtifact merges u into the stored artifact and re-sanitizes the
// merged payload against the merged schema id before writing.
func (s *Store) UpdateArtifact(ctx context.Context, sanitizer PayloadSanitizer, accountID, opportunityID, artifactID uuid.UUID, u ArtifactUpdate) (Artifact, bool, error) {
	if err := u.Validate(); err != nil {
		return Artifact{}, false, err
	}
	return artifacts.update(ctx, s.DB, func(a *Artifact) error {
		u.Apply(a)
		payload, err := sanitizer.Sanitize(ctx, a.ArtifactSchemaID, a.Payload)
		if err != nil {
			return err
		}
		a.Payload = payload
		return nil
	}, accountID, opportunityID, artifactID)
}

func (s *Store) DeleteArtifact(ctx context.Context, accountID, opportunityID, artifactID uuid.UUID) (Artifact, bool, error) {
	return artifacts.remove(ctx, s.DB, accountID, opportunityID, artifactID)
}
