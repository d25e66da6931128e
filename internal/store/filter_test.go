package store

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCompileFilterTaskScenario(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	f := TaskFilter{Status: []string{"open", "blocked"}, DueDateTo: due}

	pred, args := CompileFilter(f.Fields(), "", true, 0)
	if pred != "WHERE status IN ($1, $2) AND due_date <= $3" {
		t.Fatalf("predicate: %q", pred)
	}
	if len(args) != 3 || args[0] != "open" || args[1] != "blocked" || args[2] != due {
		t.Fatalf("args: %#v", args)
	}
}

func TestCompileFilterUnsetFieldsOmitted(t *testing.T) {
	pred, args := CompileFilter(TaskFilter{}.Fields(), "tasks", true, 0)
	if pred != "" || len(args) != 0 {
		t.Fatalf("expected empty predicate, got %q %#v", pred, args)
	}

	f := AccountFilter{Name: []string{}, OwnedBy: []string{"ana"}}
	pred, args = CompileFilter(f.Fields(), "accounts", true, 0)
	if pred != "WHERE accounts.owned_by IN ($1)" || len(args) != 1 {
		t.Fatalf("predicate: %q args %#v", pred, args)
	}
	if strings.Contains(pred, "name") {
		t.Fatalf("empty name filter leaked into predicate")
	}
}

func TestCompileFilterRangesAreInclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f := AccountFilter{CreatedAtFrom: from, UpdatedAtTo: to}
	pred, args := CompileFilter(f.Fields(), "accounts", false, 0)
	if pred != "accounts.created_at >= $1 AND accounts.updated_at <= $2" {
		t.Fatalf("predicate: %q", pred)
	}
	if args[0] != from || args[1] != to {
		t.Fatalf("args: %#v", args)
	}
}

func TestCompileFilterTagsContainment(t *testing.T) {
	f := ProjectFilter{Tags: []string{"vip", "emea"}}
	pred, args := CompileFilter(f.Fields(), "projects", true, 0)
	if pred != "WHERE projects.tags @> $1" {
		t.Fatalf("predicate: %q", pred)
	}
	if len(args) != 1 {
		t.Fatalf("tags must bind one value, got %d", len(args))
	}
	v, err := args[0].(driver.Valuer).Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != `{"vip","emea"}` {
		t.Fatalf("tags value: %#v", v)
	}
}

func TestCompileFilterOffsetAndUUIDs(t *testing.T) {
	id := uuid.New()
	f := TaskFilter{ProjectID: []uuid.UUID{id}, Name: []string{"a", "b"}}
	pred, args := CompileFilter(f.Fields(), "tasks", false, 1)
	if pred != "tasks.project_id IN ($2) AND tasks.name IN ($3, $4)" {
		t.Fatalf("predicate: %q", pred)
	}
	if args[0] != id {
		t.Fatalf("uuid arg: %#v", args[0])
	}
}

func TestScopedFilter(t *testing.T) {
	where, args := scoped("tasks.account_id = $1", 1, TaskFilter{}, "tasks")
	if where != "WHERE tasks.account_id = $1" || len(args) != 0 {
		t.Fatalf("scoped without filter: %q %#v", where, args)
	}
	where, args = scoped("tasks.account_id = $1", 1, TaskFilter{OwnedBy: []string{"ana"}}, "tasks")
	if where != "WHERE tasks.account_id = $1 AND tasks.owned_by IN ($2)" || len(args) != 1 {
		t.Fatalf("scoped with filter: %q %#v", where, args)
	}
}

func TestIsUnsetFalsyValues(t *testing.T) {
	for _, v := range []any{nil, "", []string(nil), []int64{}, time.Time{}, (*time.Time)(nil), 0, int64(0), 0.0, false, uuid.Nil} {
		if !isUnset(v) {
			t.Fatalf("%#v should be unset", v)
		}
	}
	for _, v := range []any{"x", []string{"a"}, time.Now(), 1, true} {
		if isUnset(v) {
			t.Fatalf("%#v should be set", v)
		}
	}
}
