package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownStatusKind is returned for a StatusKind outside the known set.
var ErrUnknownStatusKind = errors.New("store: unknown status kind")

var statusColumns = NewColumns(field("name", func(s *Status) *string { return &s.Name }))

func statusTable(kind StatusKind) (string, error) {
	t, ok := statusTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatusKind, kind)
	}
	return t, nil
}

func (s *Store) ListStatuses(ctx context.Context, kind StatusKind) ([]Status, error) {
	t, err := statusTable(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY name", statusColumns.Names(), t)
	return queryMany(ctx, s.DB, "list_"+t, statusColumns, q)
}

// CreateStatus adds name to the enumeration; an existing name is left as is.
func (s *Store) CreateStatus(ctx context.Context, kind StatusKind, name string) error {
	t, err := statusTable(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", t)
	return execVoid(ctx, s.DB, "create_"+t, q, name)
}

// DeleteStatus removes name. Rows still referencing it make the store
// reject the delete.
func (s *Store) DeleteStatus(ctx context.Context, kind StatusKind, name string) error {
	t, err := statusTable(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE name = $1", t)
	return execVoid(ctx, s.DB, "delete_"+t, q, name)
}
