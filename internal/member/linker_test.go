package member

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestLinkClaimsUnlinkedRows(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 2")}
	var hooked int64
	linker := NewLinker(db, func(n int64) { hooked = n })

	linked, err := linker.Link(context.Background(), "u-1", "priya@example.com", "Priya Nair", true)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if linked != 2 {
		t.Errorf("expected 2 linked rows, got %d", linked)
	}
	if hooked != 2 {
		t.Errorf("expected the hook to see 2, got %d", hooked)
	}

	if len(db.execs) != 1 {
		t.Fatalf("expected one update, got %d", len(db.execs))
	}
	query := db.execs[0].sql
	// Only unlinked rows are claimable, which is what makes a re-run for
	// the same user a no-op.
	if !strings.Contains(query, "user_id IS NULL") {
		t.Errorf("update must only claim unlinked rows: %s", query)
	}
	if !strings.Contains(query, "name = $3") {
		t.Errorf("federated link should sync the display name: %s", query)
	}
	if got := db.execs[0].args; len(got) != 3 || got[0] != "u-1" || got[2] != "Priya Nair" {
		t.Errorf("unexpected args %v", got)
	}
}

func TestLinkWithoutNameSync(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	linker := NewLinker(db, nil)

	linked, err := linker.Link(context.Background(), "u-1", "priya@example.com", "Priya Nair", false)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if linked != 1 {
		t.Errorf("expected 1 linked row, got %d", linked)
	}

	query := db.execs[0].sql
	if strings.Contains(query, "name =") {
		t.Errorf("password signup must keep guest member names: %s", query)
	}
	if len(db.execs[0].args) != 2 {
		t.Errorf("unexpected args %v", db.execs[0].args)
	}
}

func TestLinkNoMatches(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	called := false
	linker := NewLinker(db, func(int64) { called = true })

	linked, err := linker.Link(context.Background(), "u-1", "nobody@example.com", "Nobody", true)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if linked != 0 {
		t.Errorf("expected 0 linked rows, got %d", linked)
	}
	if called {
		t.Error("the hook must not fire when nothing linked")
	}
}
