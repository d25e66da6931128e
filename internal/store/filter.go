package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	tagsField  = "tags"
	fromSuffix = "_from"
	toSuffix   = "_to"
)

// FilterField is one entry of a sparse filter record. Name must come from
// a code-controlled filter declaration; only Value is ever bound.
type FilterField struct {
	Name  string
	Value any
}

// Filter is implemented by every entity filter. Fields returns the
// populated and unpopulated fields in declared order.
type Filter interface {
	Fields() []FilterField
}

// CompileFilter turns a sparse filter into an AND-joined predicate and its
// positional bind values. offset is the number of placeholders already
// consumed by the caller's statement. Unset fields contribute nothing.
func CompileFilter(fields []FilterField, table string, includeWhere bool, offset int) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", offset+len(args))
	}
	for _, f := range fields {
		if isUnset(f.Value) {
			continue
		}
		switch {
		case f.Name == tagsField:
			clauses = append(clauses, fmt.Sprintf("%s @> %s", qualify(table, f.Name), next(pq.Array(f.Value))))
		case strings.HasSuffix(f.Name, fromSuffix):
			col := strings.TrimSuffix(f.Name, fromSuffix)
			clauses = append(clauses, fmt.Sprintf("%s >= %s", qualify(table, col), next(f.Value)))
		case strings.HasSuffix(f.Name, toSuffix):
			col := strings.TrimSuffix(f.Name, toSuffix)
			clauses = append(clauses, fmt.Sprintf("%s <= %s", qualify(table, col), next(f.Value)))
		default:
			values := expand(f.Value)
			ph := make([]string, len(values))
			for i, v := range values {
				ph[i] = next(v)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", qualify(table, f.Name), strings.Join(ph, ", ")))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	pred := strings.Join(clauses, " AND ")
	if includeWhere {
		pred = "WHERE " + pred
	}
	return pred, args
}

// scoped prepends a fixed predicate that already consumed nFixed
// placeholders to the compiled filter.
func scoped(fixed string, nFixed int, f Filter, table string) (string, []any) {
	pred, args := CompileFilter(f.Fields(), table, false, nFixed)
	if pred == "" {
		return "WHERE " + fixed, nil
	}
	return "WHERE " + fixed + " AND " + pred, args
}

func qualify(table, col string) string {
	if table == "" {
		return col
	}
	return table + "." + col
}

func expand(v any) []any {
	switch vv := v.(type) {
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case []uuid.UUID:
		out := make([]any, len(vv))
		for i, id := range vv {
			out[i] = id
		}
		return out
	default:
		return []any{v}
	}
}

// isUnset treats every empty or falsy value as absent, so a literal zero
// or false cannot be filtered on.
func isUnset(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case []string:
		return len(vv) == 0
	case []int64:
		return len(vv) == 0
	case []uuid.UUID:
		return len(vv) == 0
	case time.Time:
		return vv.IsZero()
	case *time.Time:
		return vv == nil || vv.IsZero()
	case int:
		return vv == 0
	case int64:
		return vv == 0
	case float64:
		return vv == 0
	case bool:
		return !vv
	case uuid.UUID:
		return vv == uuid.Nil
	default:
		return false
	}
}
