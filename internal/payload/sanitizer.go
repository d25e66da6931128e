package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSchemaNotFound is returned when the named artifact schema is not stored.
var ErrSchemaNotFound = errors.New("payload: artifact schema not found")

// ValidationError carries every field-level failure of a payload.
type ValidationError struct {
	SchemaID string
	Fields   []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Path + ": " + f.Message
	}
	return fmt.Sprintf("payload does not match artifact schema %q: %s", e.SchemaID, strings.Join(parts, "; "))
}

// SchemaSource looks up stored schema definitions by id.
type SchemaSource interface {
	ArtifactSchemaDefinition(ctx context.Context, id string) (json.RawMessage, bool, error)
}

// Sanitizer validates artifact payloads against their stored schema and
// returns them in canonical form.
type Sanitizer struct {
	Source SchemaSource
	Mode   Mode
}

func NewSanitizer(src SchemaSource, mode Mode) *Sanitizer {
	return &Sanitizer{Source: src, Mode: mode}
}

// Sanitize loads schemaID, validates payload against it and returns the
// canonical payload. Failures are ErrSchemaNotFound, a *ValidationError,
// or a lookup error from the source.
func (s *Sanitizer) Sanitize(ctx context.Context, schemaID string, payload json.RawMessage) (json.RawMessage, error) {
	def, ok, err := s.Source.ArtifactSchemaDefinition(ctx, schemaID)
	if err != nil {
		return nil, fmt.Errorf("load artifact schema %q: %w", schemaID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, schemaID)
	}
	node, err := ParseDefinition(def)
	if err != nil {
		return nil, fmt.Errorf("artifact schema %q: %w", schemaID, err)
	}

	value, err := decode(payload)
	if err != nil {
		return nil, &ValidationError{SchemaID: schemaID, Fields: []FieldError{{Path: "(root)", Message: err.Error()}}}
	}
	out, fieldErrs := Validate(node, value, s.Mode)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{SchemaID: schemaID, Fields: fieldErrs}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// decode reads exactly one JSON value, keeping numbers as json.Number. An
// empty payload is an empty object.
func decode(payload json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid JSON: trailing data after payload")
	}
	return v, nil
}
