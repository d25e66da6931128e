package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

var (
	artifactSchemaKey = []Column[ArtifactSchema]{
		field("artifact_schema_id", func(a *ArtifactSchema) *string { return &a.ArtifactSchemaID }),
	}
	artifactSchemaBody = slices.Concat(
		[]Column[ArtifactSchema]{
			jsonField("artifact_schema", func(a *ArtifactSchema) *json.RawMessage { return &a.ArtifactSchema }),
		},
		auditColumns(func(a *ArtifactSchema) *Audit { return &a.Audit }),
	)

	artifactSchemas = newTable("artifact_schemas", []string{"artifact_schema_id"},
		NewColumns(slices.Concat(artifactSchemaKey, artifactSchemaBody)...),
		NewColumns(artifactSchemaBody...),
		NewColumns(slices.Concat(artifactSchemaKey, artifactSchemaBody)...),
	)
)

var selectArtifactSchemas = fmt.Sprintf("SELECT %s FROM artifact_schemas ORDER BY artifact_schema_id", artifactSchemas.public.Names())

func (s *Store) ListArtifactSchemas(ctx context.Context) ([]ArtifactSchema, error) {
	return queryMany(ctx, s.DB, "list_artifact_schemas", artifactSchemas.public, selectArtifactSchemas)
}

func (s *Store) GetArtifactSchema(ctx context.Context, id string) (ArtifactSchema, bool, error) {
	return artifactSchemas.get(ctx, s.DB, id)
}

// ArtifactSchemaDefinition returns only the stored definition, for payload
// sanitizing.
func (s *Store) ArtifactSchemaDefinition(ctx context.Context, id string) (json.RawMessage, bool, error) {
	rec, ok, err := s.GetArtifactSchema(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return rec.ArtifactSchema, true, nil
}

// CreateArtifactSchema stores a definition. Callers validate the definition
// itself before storing it.
func (s *Store) CreateArtifactSchema(ctx context.Context, a ArtifactSchema) (ArtifactSchema, error) {
	a.stamp(a.CreatedBy)
	return artifactSchemas.create(ctx, s.DB, &a)
}

func (s *Store) DeleteArtifactSchema(ctx context.Context, id string) (ArtifactSchema, bool, error) {
	return artifactSchemas.remove(ctx, s.DB, id)
}
