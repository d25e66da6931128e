package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoColumns means a statement expected to return rows reported no
	// column descriptors. The statement and schema disagree.
	ErrNoColumns = errors.New("store: statement returned no column descriptors")
	// ErrColumnMismatch means the returned columns do not match the target
	// record's descriptor table.
	ErrColumnMismatch = errors.New("store: returned columns do not match record")
)

const (
	shapeScalar     = "scalar"
	shapeCollection = "collection"
	shapeVoid       = "void"
)

// queryOne runs a returning statement and maps at most one row. Zero rows
// is reported as (zero, false, nil).
func queryOne[T any](ctx context.Context, q Queryer, op string, cols *Columns[T], query string, args ...any) (rec T, found bool, err error) {
	start := time.Now()
	defer func() { observe(op, shapeScalar, start, err) }()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return rec, false, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	names, err := returnedColumns(rows)
	if err != nil {
		return rec, false, fmt.Errorf("%s: %w", op, err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return rec, false, fmt.Errorf("%s: %w", op, err)
		}
		return rec, false, nil
	}
	if err := scanInto(rows, cols, &rec, names); err != nil {
		var zero T
		return zero, false, fmt.Errorf("%s: %w", op, err)
	}
	return rec, true, nil
}

// queryMany maps every returned row in store order. An empty result is an
// empty, non-nil slice.
func queryMany[T any](ctx context.Context, q Queryer, op string, cols *Columns[T], query string, args ...any) (out []T, err error) {
	start := time.Now()
	defer func() { observe(op, shapeCollection, start, err) }()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	names, err := returnedColumns(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out = []T{}
	for rows.Next() {
		var rec T
		if err := scanInto(rows, cols, &rec, names); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// execVoid runs a statement without materializing a result.
func execVoid(ctx context.Context, q Queryer, op string, query string, args ...any) (err error) {
	start := time.Now()
	defer func() { observe(op, shapeVoid, start, err) }()

	if _, err = q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func returnedColumns(rows *sql.Rows) ([]string, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoColumns
	}
	return names, nil
}

func scanInto[T any](rows *sql.Rows, cols *Columns[T], rec *T, names []string) error {
	dest, err := cols.targets(rec, names)
	if err != nil {
		return err
	}
	return rows.Scan(dest...)
}
