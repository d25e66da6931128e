package store

import (
	"context"
	"fmt"
	"strings"
)

// table binds a record type to its descriptor tables and the keyed
// statements every entity shares. Statements are rendered once.
type table[T any] struct {
	name   string
	keys   []string
	public *Columns[T]
	write  *Columns[T]
	insert *Columns[T]

	selectOne string
	insertOne string
	updateOne string
	deleteOne string
	appendRef string
	removeRef string
}

// newTable renders the keyed statements for name. keys is the natural key
// in argument order; write is the full-row update list and insert the
// column list of an INSERT.
func newTable[T any](name string, keys []string, public, write, insert *Columns[T]) *table[T] {
	t := &table[T]{name: name, keys: keys, public: public, write: write, insert: insert}
	t.selectOne = fmt.Sprintf("SELECT %s FROM %s WHERE %s", public.Names(), name, t.keyMatch(1))
	t.insertOne = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		name, insert.Names(), insert.Placeholders(), public.Names())
	t.updateOne = fmt.Sprintf("UPDATE %s SET (%s) = (%s) WHERE %s RETURNING %s",
		name, write.Names(), write.Placeholders(), t.keyMatch(write.Len()+1), public.Names())
	t.deleteOne = fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING %s", name, t.keyMatch(1), public.Names())
	t.appendRef = fmt.Sprintf("UPDATE %s SET attachments = array_append(attachments, $1) WHERE %s", name, t.keyMatch(2))
	t.removeRef = fmt.Sprintf("UPDATE %s SET attachments = array_remove(attachments, $1) WHERE %s", name, t.keyMatch(2))
	return t
}

// keyMatch renders the natural key predicate with placeholders from $from.
func (t *table[T]) keyMatch(from int) string {
	if len(t.keys) == 1 {
		return fmt.Sprintf("%s = $%d", t.keys[0], from)
	}
	return fmt.Sprintf("(%s) = (%s)", strings.Join(t.keys, ", "), placeholders(from, len(t.keys)))
}

func (t *table[T]) checkKey(key []any) {
	if len(key) != len(t.keys) {
		panic(fmt.Sprintf("store: %s key needs %d values, got %d", t.name, len(t.keys), len(key)))
	}
}

func (t *table[T]) get(ctx context.Context, q Queryer, key ...any) (T, bool, error) {
	t.checkKey(key)
	return queryOne(ctx, q, "get_"+t.name, t.public, t.selectOne, key...)
}

func (t *table[T]) create(ctx context.Context, q Queryer, rec *T) (T, error) {
	out, _, err := queryOne(ctx, q, "create_"+t.name, t.public, t.insertOne, t.insert.Values(rec)...)
	return out, err
}

// update runs the read-merge-write cycle for the record at key.
func (t *table[T]) update(ctx context.Context, q Queryer, apply func(*T) error, key ...any) (T, bool, error) {
	t.checkKey(key)
	return mergeUpdate(ctx,
		func(ctx context.Context) (T, bool, error) { return t.get(ctx, q, key...) },
		apply,
		func(ctx context.Context, rec *T) (T, bool, error) {
			args := append(t.write.Values(rec), key...)
			return queryOne(ctx, q, "update_"+t.name, t.public, t.updateOne, args...)
		},
	)
}

func (t *table[T]) remove(ctx context.Context, q Queryer, key ...any) (T, bool, error) {
	t.checkKey(key)
	return queryOne(ctx, q, "delete_"+t.name, t.public, t.deleteOne, key...)
}

func (t *table[T]) addAttachment(ctx context.Context, q Queryer, objectName string, key ...any) error {
	t.checkKey(key)
	return execVoid(ctx, q, "add_"+t.name+"_attachment", t.appendRef, append([]any{objectName}, key...)...)
}

// removeAttachment drops every occurrence of objectName. Absent names are
// a no-op.
func (t *table[T]) removeAttachment(ctx context.Context, q Queryer, objectName string, key ...any) error {
	t.checkKey(key)
	return execVoid(ctx, q, "remove_"+t.name+"_attachment", t.removeRef, append([]any{objectName}, key...)...)
}
