package resource

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/services/admin/action"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE people (id TEXT PRIMARY KEY, email TEXT NOT NULL, name TEXT NOT NULL, active INTEGER NOT NULL);
INSERT INTO people (id, email, name, active) VALUES
  ('p1', 'ada@example.com', 'Ada', 1),
  ('p2', 'grace@example.com', 'Grace', 0),
  ('p3', 'o''brien@example.com', 'Pat 100%', 1);
`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func newPeople(t *testing.T, db *sql.DB) *SQLResource {
	t.Helper()
	resource, err := NewSQL(db, Table{
		Name:          "people",
		Label:         "admin.resources.people",
		Table:         "people",
		Columns:       []string{"email", "name", "active"},
		IndexColumns:  []string{"id", "name"},
		SearchColumns: []string{"email", "name"},
		OrderBy:       "email",
	})
	if err != nil {
		t.Fatalf("new resource: %v", err)
	}
	return resource
}

func recordIDs(records []action.Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}

func TestNewSQLValidates(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if _, err := NewSQL(nil, Table{Name: "x", Table: "x"}); err == nil {
		t.Fatal("expected error for nil db")
	}
	if _, err := NewSQL(db, Table{Table: "x"}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := NewSQL(db, Table{Name: "x"}); err == nil {
		t.Fatal("expected error for missing table")
	}
	if _, err := NewSQL(db, Table{Name: "x", Table: "x", Columns: []string{"a"}, IndexColumns: []string{"b"}}); err == nil {
		t.Fatal("expected error for unselected index column")
	}
}

func TestFindByIDsKeepsOrder(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	records, err := people.FindByIDs(context.Background(), []string{"p3", "p1"})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if diff := cmp.Diff([]string{"p3", "p1"}, recordIDs(records)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := records[0].Values["email"]; got != "o'brien@example.com" {
		t.Fatalf("email = %v", got)
	}
	if got := records[1].Values["active"]; got != int64(1) {
		t.Fatalf("active = %#v", got)
	}
}

func TestFindByIDsMissing(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	_, err := people.FindByIDs(context.Background(), []string{"p1", "nope"})
	if !apperrors.IsCode(err, apperrors.CodeRecordNotFound) {
		t.Fatalf("error = %v, want RECORD_NOT_FOUND", err)
	}
	if _, err := people.FindByID(context.Background(), ""); !apperrors.IsCode(err, apperrors.CodeRecordNotFound) {
		t.Fatalf("empty id error = %v", err)
	}

	records, err := people.FindByIDs(context.Background(), nil)
	if err != nil || len(records) != 0 {
		t.Fatalf("empty ids = (%v, %v)", records, err)
	}
}

func TestListAndSelectAllAgree(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	ctx := context.Background()

	listing, err := people.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"p1", "p2", "p3"}, recordIDs(listing.Records)); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}

	all, err := people.FindBySQL(ctx, listing.SelectAllSQL)
	if err != nil {
		t.Fatalf("find by sql: %v", err)
	}
	if diff := cmp.Diff(listing.Records, all); diff != "" {
		t.Fatalf("select-all mismatch (-want +got):\n%s", diff)
	}
}

func TestListSearchEscapesInput(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	ctx := context.Background()

	tests := []struct {
		search string
		want   []string
	}{
		{search: "grace", want: []string{"p2"}},
		{search: "o'brien", want: []string{"p3"}},
		{search: "100%", want: []string{"p3"}},
		{search: "%", want: []string{"p3"}},
		{search: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		listing, err := people.List(ctx, tt.search)
		if err != nil {
			t.Fatalf("list %q: %v", tt.search, err)
		}
		if diff := cmp.Diff(tt.want, recordIDs(listing.Records)); diff != "" {
			t.Fatalf("search %q mismatch (-want +got):\n%s", tt.search, diff)
		}
		all, err := people.FindBySQL(ctx, listing.SelectAllSQL)
		if err != nil {
			t.Fatalf("find by sql %q: %v", tt.search, err)
		}
		if diff := cmp.Diff(tt.want, recordIDs(all)); diff != "" {
			t.Fatalf("select-all %q mismatch (-want +got):\n%s", tt.search, diff)
		}
	}
}

func TestFindBySQLRejectsForeignQueries(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	for _, query := range []string{"", "DELETE FROM people", "SELECT * FROM sqlite_master"} {
		_, err := people.FindBySQL(context.Background(), query)
		if !apperrors.IsCode(err, apperrors.CodeSelectedQueryInvalid) {
			t.Fatalf("FindBySQL(%q) error = %v", query, err)
		}
	}
}

func TestHydrateColumnsByView(t *testing.T) {
	t.Parallel()

	people := newPeople(t, openTestDB(t))
	h, err := people.Hydrate(context.Background(), action.Hydration{View: action.ViewIndex})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "name"}, h.Columns); diff != "" {
		t.Fatalf("index columns mismatch (-want +got):\n%s", diff)
	}
	h, err = people.Hydrate(context.Background(), action.Hydration{View: action.ViewNew})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "email", "name", "active"}, h.Columns); diff != "" {
		t.Fatalf("form columns mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(people.IndexPath(), "/people") {
		t.Fatalf("index path = %q", people.IndexPath())
	}
}
