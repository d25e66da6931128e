package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"
)

// Column describes one persisted field of T: the column name, the value
// bound when the field is written, and the destination scanned into when
// it is read. Get is nil for columns that are never written through a
// column list (attachments, joined names).
type Column[T any] struct {
	Name string
	Get  func(*T) any
	Ref  func(*T) any
}

// Columns is the ordered descriptor table for a record type. Names and
// placeholders are derived once from the same slice, so their arity and
// order always agree.
type Columns[T any] struct {
	cols         []Column[T]
	index        map[string]int
	names        string
	placeholders string
}

// NewColumns builds a descriptor table. It panics on duplicate names since
// the tables are package-level declarations.
func NewColumns[T any](cols ...Column[T]) *Columns[T] {
	c := &Columns[T]{
		cols:  slices.Clone(cols),
		index: make(map[string]int, len(cols)),
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		if _, dup := c.index[col.Name]; dup {
			panic(fmt.Sprintf("store: duplicate column %q", col.Name))
		}
		c.index[col.Name] = i
		names[i] = col.Name
	}
	c.names = strings.Join(names, ", ")
	c.placeholders = placeholders(1, len(cols))
	return c
}

// Len reports the number of columns.
func (c *Columns[T]) Len() int { return len(c.cols) }

// Names returns the comma-joined column list.
func (c *Columns[T]) Names() string { return c.names }

// List returns the column names in declared order.
func (c *Columns[T]) List() []string {
	out := make([]string, len(c.cols))
	for i, col := range c.cols {
		out[i] = col.Name
	}
	return out
}

// Placeholders returns "$1, $2, ..." matching Names.
func (c *Columns[T]) Placeholders() string { return c.placeholders }

// Qualified returns the column list prefixed with table, for joins.
func (c *Columns[T]) Qualified(table string) string {
	parts := make([]string, len(c.cols))
	for i, col := range c.cols {
		parts[i] = table + "." + col.Name
	}
	return strings.Join(parts, ", ")
}

// Values returns the bind values for rec in column order.
func (c *Columns[T]) Values(rec *T) []any {
	out := make([]any, len(c.cols))
	for i, col := range c.cols {
		if col.Get == nil {
			panic(fmt.Sprintf("store: column %q is not writable", col.Name))
		}
		out[i] = col.Get(rec)
	}
	return out
}

// targets resolves scan destinations for the columns a statement returned.
// The returned set must match the table exactly.
func (c *Columns[T]) targets(rec *T, returned []string) ([]any, error) {
	if len(returned) != len(c.cols) {
		return nil, fmt.Errorf("%w: got %d columns %v, want %d", ErrColumnMismatch, len(returned), returned, len(c.cols))
	}
	seen := make([]bool, len(c.cols))
	dest := make([]any, len(returned))
	for i, name := range returned {
		j, ok := c.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: unexpected column %q", ErrColumnMismatch, name)
		}
		if seen[j] {
			return nil, fmt.Errorf("%w: column %q returned twice", ErrColumnMismatch, name)
		}
		seen[j] = true
		dest[i] = c.cols[j].Ref(rec)
	}
	return dest, nil
}

// descriptors exposes the raw descriptors for composing tables.
func (c *Columns[T]) descriptors() []Column[T] { return slices.Clone(c.cols) }

// Embed lifts an inner table onto an outer type that embeds it, appending
// any extra columns of the outer type.
func Embed[O, I any](inner *Columns[I], get func(*O) *I, extra ...Column[O]) *Columns[O] {
	return NewColumns(append(lift(inner.descriptors(), get), extra...)...)
}

func lift[O, I any](cols []Column[I], get func(*O) *I) []Column[O] {
	out := make([]Column[O], len(cols))
	for i, col := range cols {
		col := col
		lifted := Column[O]{
			Name: col.Name,
			Ref:  func(o *O) any { return col.Ref(get(o)) },
		}
		if col.Get != nil {
			lifted.Get = func(o *O) any { return col.Get(get(o)) }
		}
		out[i] = lifted
	}
	return out
}

func placeholders(from, n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func field[T, V any](name string, ptr func(*T) *V) Column[T] {
	return Column[T]{
		Name: name,
		Get:  func(r *T) any { return *ptr(r) },
		Ref:  func(r *T) any { return ptr(r) },
	}
}

func arrayField[T any](name string, ptr func(*T) *[]string) Column[T] {
	return Column[T]{
		Name: name,
		Get: func(r *T) any {
			v := *ptr(r)
			if v == nil {
				v = []string{}
			}
			return pq.Array(v)
		},
		Ref: func(r *T) any { return pq.Array(ptr(r)) },
	}
}

func jsonField[T any](name string, ptr func(*T) *json.RawMessage) Column[T] {
	return Column[T]{
		Name: name,
		Get:  func(r *T) any { return defaultJSON(*ptr(r)) },
		Ref:  func(r *T) any { return ptr(r) },
	}
}

func readOnly[T, V any](name string, ptr func(*T) *V) Column[T] {
	return Column[T]{Name: name, Ref: func(r *T) any { return ptr(r) }}
}

func readOnlyArray[T any](name string, ptr func(*T) *[]string) Column[T] {
	return Column[T]{Name: name, Ref: func(r *T) any { return pq.Array(ptr(r)) }}
}
