package builtin

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/louisbranch/avo/internal/platform/i18n/catalog"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	"github.com/louisbranch/avo/internal/services/admin/storage"
	adminsqlite "github.com/louisbranch/avo/internal/services/admin/storage/sqlite"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type fixture struct {
	store    *adminsqlite.Store
	catalog  *resource.Catalog
	registry *action.Registry
	users    resource.Resource
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := adminsqlite.Open(context.Background(), filepath.Join(dir, "admin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, user := range []storage.User{
		{ID: "u1", Email: "ada@example.com", Name: "Ada", Active: true, CreatedAt: created},
		{ID: "u2", Email: "grace@example.com", Name: "Grace", Active: false, CreatedAt: created},
	} {
		if err := store.PutUser(context.Background(), user); err != nil {
			t.Fatalf("put user: %v", err)
		}
	}

	catalog := resource.NewCatalog()
	registry := action.NewRegistry()
	downloads := filepath.Join(dir, "downloads")
	if err := os.MkdirAll(downloads, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	err = Register(catalog, registry, Deps{
		DB:          store.DB(),
		Users:       store,
		Maintainer:  store,
		DownloadDir: downloads,
		Now:         func() time.Time { return created },
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	users, err := catalog.Lookup(UsersResource)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return &fixture{store: store, catalog: catalog, registry: registry, users: users, dir: downloads}
}

func (f *fixture) action(t *testing.T, name string, record *action.Record) action.Action {
	t.Helper()
	factory, _, err := f.registry.Resolve(action.Identifier(name))
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	return factory(action.Context{
		Resource: f.users,
		Record:   record,
		User:     action.User{ID: "op-1"},
		View:     action.ViewIndex,
		Loc:      message.NewPrinter(language.English),
	})
}

func (f *fixture) invocation(t *testing.T, ids string, fields map[string]string, standalone bool) action.Invocation {
	t.Helper()
	all := map[string]string{action.FieldResourceIDs: ids}
	for key, value := range fields {
		all[key] = value
	}
	inv, err := action.BuildInvocation(context.Background(), action.BuildParams{
		Fields:     all,
		User:       action.User{ID: "op-1"},
		Resource:   f.users,
		Standalone: standalone,
	})
	if err != nil {
		t.Fatalf("build invocation: %v", err)
	}
	return inv
}

func TestRegisterMountsUsersAndActions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	got := f.registry.ForResource(UsersResource)
	want := []string{"ToggleActive", "ExportCSV", "SendReminder", "RebuildSearchIndex"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	if err := Register(f.catalog, f.registry, Deps{DB: f.store.DB(), Users: f.store, Maintainer: f.store}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := Register(resource.NewCatalog(), action.NewRegistry(), Deps{DB: f.store.DB()}); err == nil {
		t.Fatal("expected missing store error")
	}
}

func TestToggleActiveFlipsSelectedUsers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	act := f.action(t, "ToggleActive", nil)
	resp, err := act.Handle(context.Background(), f.invocation(t, "u1,u2", nil, false))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Kind != action.KindReload {
		t.Fatalf("kind = %q", resp.Kind)
	}
	want := []action.Message{action.Success("Toggled 2 user(s).")}
	if diff := cmp.Diff(want, resp.Messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	ada, err := f.store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	grace, err := f.store.GetUser(context.Background(), "u2")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if ada.Active || !grace.Active {
		t.Fatalf("active flags = %v, %v", ada.Active, grace.Active)
	}
}

func TestToggleActiveWithoutRecordsIsSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp, err := f.action(t, "ToggleActive", nil).Handle(context.Background(), f.invocation(t, "", nil, false))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Severity != action.SeveritySilent {
		t.Fatalf("messages = %+v", resp.Messages)
	}
	if visible := action.VisibleMessages(resp.Messages, action.Info("default")); len(visible) != 0 {
		t.Fatalf("visible = %+v", visible)
	}
}

func TestExportCSVWritesSelectedRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	act := f.action(t, "ExportCSV", nil)
	if got := act.Definition().FieldDefaults()["filename"]; got != "users.csv" {
		t.Fatalf("filename default = %q", got)
	}
	resp, err := act.Handle(context.Background(), f.invocation(t, "u2", map[string]string{"filename": "team"}, false))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Kind != action.KindDownload {
		t.Fatalf("kind = %q", resp.Kind)
	}
	dl := resp.Download
	if dl.Filename != "team.csv" || !dl.RemoveAfter || dl.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("download = %+v", dl)
	}
	if filepath.Dir(dl.Path) != f.dir {
		t.Fatalf("path %q not in %q", dl.Path, f.dir)
	}
	file, err := os.Open(dl.Path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"id", "email", "name", "active", "created_at"},
		{"u2", "grace@example.com", "Grace", "0", "1767323045000"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestExportFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                 "users.csv",
		"  report.CSV ":    "report.CSV",
		"../../etc/passwd": "passwd.csv",
		"team":             "team.csv",
	}
	for input, want := range tests {
		if got := exportFilename(input); got != want {
			t.Fatalf("exportFilename(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSendReminderRequiresMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp, err := f.action(t, "SendReminder", nil).Handle(context.Background(), f.invocation(t, "u1", map[string]string{"message": "  "}, false))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	outcome := action.Interpret(resp, action.LocationContext{Resource: f.users}, action.Info("default"))
	if outcome.Kind != action.OutcomeValidationFailure || outcome.FormError != "A message is required." {
		t.Fatalf("outcome = %+v", outcome)
	}
	reminders, err := f.store.ListReminders(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(reminders) != 0 {
		t.Fatalf("reminders = %+v", reminders)
	}
}

func TestSendReminderQueuesAndRedirectsToRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	inv := f.invocation(t, "u1", map[string]string{"message": "Please verify your email"}, false)
	resp, err := f.action(t, "SendReminder", nil).Handle(context.Background(), inv)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Kind != action.KindRedirect || !resp.Location.IsDeferred() {
		t.Fatalf("response = %+v", resp)
	}
	outcome := action.Interpret(resp, inv.LocationContext(""), action.Info("default"))
	if outcome.Location != "/resources/users?q=ada%40example.com" {
		t.Fatalf("location = %q", outcome.Location)
	}
	want := []action.Message{action.Success("Reminder queued for 1 user(s).")}
	if diff := cmp.Diff(want, outcome.Messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	reminders, err := f.store.ListReminders(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Message != "Please verify your email" || reminders[0].SentBy != "op-1" {
		t.Fatalf("reminders = %+v", reminders)
	}
}

func TestSendReminderDefaultsGreetRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	record, err := f.users.FindByID(context.Background(), "u2")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got := f.action(t, "SendReminder", &record).Defaults(context.Background())
	if got["message"] != "Hi Grace," {
		t.Fatalf("defaults = %v", got)
	}
	if defaults := f.action(t, "SendReminder", nil).Defaults(context.Background()); defaults != nil {
		t.Fatalf("defaults without record = %v", defaults)
	}
}

func TestRebuildSearchIndexIsStandalone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	act := f.action(t, "RebuildSearchIndex", nil)
	if !act.Definition().Standalone {
		t.Fatal("expected standalone definition")
	}
	inv := f.invocation(t, "u1", nil, true)
	if inv.Records != nil {
		t.Fatalf("records = %+v", inv.Records)
	}
	resp, err := act.Handle(context.Background(), inv)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Kind != action.KindRedirect || resp.Location.IsDeferred() {
		t.Fatalf("response = %+v", resp)
	}
	outcome := action.Interpret(resp, inv.LocationContext(""), action.Info("default"))
	if outcome.Location != "/resources/users" {
		t.Fatalf("location = %q", outcome.Location)
	}
	if len(outcome.Messages) != 1 || !strings.Contains(outcome.Messages[0].Body, "2 records") {
		t.Fatalf("messages = %+v", outcome.Messages)
	}
}
