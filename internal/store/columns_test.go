package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type pair struct {
	A string
	B int
}

func pairColumns() *Columns[pair] {
	return NewColumns(
		field("a", func(p *pair) *string { return &p.A }),
		field("b", func(p *pair) *int { return &p.B }),
	)
}

func TestColumnsNamesAndPlaceholders(t *testing.T) {
	c := pairColumns()
	if c.Names() != "a, b" {
		t.Fatalf("names: %q", c.Names())
	}
	if c.Placeholders() != "$1, $2" {
		t.Fatalf("placeholders: %q", c.Placeholders())
	}
	if c.Qualified("pairs") != "pairs.a, pairs.b" {
		t.Fatalf("qualified: %q", c.Qualified("pairs"))
	}
	vals := c.Values(&pair{A: "x", B: 7})
	if len(vals) != 2 || vals[0] != "x" || vals[1] != 7 {
		t.Fatalf("values: %#v", vals)
	}
}

func TestColumnsEmpty(t *testing.T) {
	c := NewColumns[pair]()
	if c.Names() != "" || c.Placeholders() != "" || c.Len() != 0 {
		t.Fatalf("expected empty strings, got %q %q", c.Names(), c.Placeholders())
	}
}

func TestColumnsDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate column")
		}
	}()
	NewColumns(
		field("a", func(p *pair) *string { return &p.A }),
		field("a", func(p *pair) *string { return &p.A }),
	)
}

func TestColumnsTargets(t *testing.T) {
	c := pairColumns()
	var p pair
	dest, err := c.targets(&p, []string{"b", "a"})
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	*(dest[0].(*int)) = 3
	*(dest[1].(*string)) = "y"
	if p.A != "y" || p.B != 3 {
		t.Fatalf("targets bound to wrong fields: %#v", p)
	}

	for _, returned := range [][]string{{"a"}, {"a", "c"}, {"a", "a"}, {"a", "b", "c"}} {
		if _, err := c.targets(&p, returned); !errors.Is(err, ErrColumnMismatch) {
			t.Fatalf("returned %v: expected ErrColumnMismatch, got %v", returned, err)
		}
	}
}

// Every table must render column and placeholder lists of equal arity.
func TestEntityColumnArity(t *testing.T) {
	check := func(name, cols, ph string, n int) {
		t.Helper()
		if got := len(strings.Split(cols, ", ")); got != n {
			t.Fatalf("%s: %d columns, want %d", name, got, n)
		}
		if got := len(strings.Split(ph, ", ")); got != n {
			t.Fatalf("%s: %d placeholders, want %d", name, got, n)
		}
	}
	check("accounts.write", accounts.write.Names(), accounts.write.Placeholders(), accounts.write.Len())
	check("accounts.insert", accounts.insert.Names(), accounts.insert.Placeholders(), accounts.insert.Len())
	check("projects.write", projects.write.Names(), projects.write.Placeholders(), projects.write.Len())
	check("tasks.insert", tasks.insert.Names(), tasks.insert.Placeholders(), tasks.insert.Len())
	check("notes.insert", notes.insert.Names(), notes.insert.Placeholders(), notes.insert.Len())
	check("artifacts.write", artifacts.write.Names(), artifacts.write.Placeholders(), artifacts.write.Len())
	check("users.write", users.write.Names(), users.write.Placeholders(), users.write.Len())

	if strings.Contains(accounts.write.Names(), "attachments") {
		t.Fatalf("attachments must not be in the write list")
	}
	if !strings.HasSuffix(accounts.public.Names(), "attachments") {
		t.Fatalf("attachments missing from public list: %s", accounts.public.Names())
	}
	if strings.Contains(tasks.insert.Names(), "task_id") {
		t.Fatalf("task_id is store assigned: %s", tasks.insert.Names())
	}
	if strings.Contains(users.write.Names(), "user_id") || !strings.Contains(users.write.Names(), "hashed_password") {
		t.Fatalf("unexpected users write list: %s", users.write.Names())
	}
}

func TestTableStatements(t *testing.T) {
	want := "UPDATE tasks SET (" + tasks.write.Names() + ") = (" + tasks.write.Placeholders() +
		") WHERE (account_id, project_id, task_id) = ($11, $12, $13) RETURNING " + tasks.public.Names()
	if tasks.updateOne != want {
		t.Fatalf("update statement:\n got %s\nwant %s", tasks.updateOne, want)
	}
	if accounts.appendRef != "UPDATE accounts SET attachments = array_append(attachments, $1) WHERE account_id = $2" {
		t.Fatalf("append statement: %s", accounts.appendRef)
	}
	if projects.removeRef != "UPDATE projects SET attachments = array_remove(attachments, $1) WHERE (account_id, project_id) = ($2, $3)" {
		t.Fatalf("remove statement: %s", projects.removeRef)
	}
}

func TestEmbedAddsExtraColumns(t *testing.T) {
	if got := taskWithProjectColumns.Len(); got != taskOverviewColumns.Len()+1 {
		t.Fatalf("embedded len %d", got)
	}
	var rec TaskOverviewWithProjectName
	dest, err := taskWithProjectColumns.targets(&rec, taskWithProjectColumns.List())
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	*(dest[len(dest)-1].(*string)) = "Apollo"
	*(dest[0].(*uuid.UUID)) = uuid.UUID{1}
	if rec.ProjectName != "Apollo" || rec.AccountID[0] != 1 {
		t.Fatalf("embedded targets not wired: %#v", rec)
	}
}
