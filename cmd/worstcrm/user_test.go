package main

import (
	"slices"
	"testing"
)

func TestSplitScopes(t *testing.T) {
	if got := splitScopes(" rw, admin ,,"); !slices.Equal(got, []string{"rw", "admin"}) {
		t.Fatalf("unexpected scopes %v", got)
	}
	if got := splitScopes(""); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil scopes, got %#v", got)
	}
}
