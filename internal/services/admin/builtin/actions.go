package builtin

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/routepath"
	"github.com/louisbranch/avo/internal/services/admin/storage"
	"github.com/louisbranch/avo/internal/services/admin/templates"
)

const defaultExportFilename = "users.csv"

type toggleActive struct {
	ctx  action.Context
	deps Deps
}

func (a toggleActive) Definition() action.Definition {
	return action.Definition{
		Name:    "ToggleActive",
		Label:   "actions.toggle_active.label",
		Confirm: "actions.toggle_active.confirm",
	}
}

func (toggleActive) Defaults(context.Context) map[string]string { return nil }

func (a toggleActive) Handle(ctx context.Context, inv action.Invocation) (action.Response, error) {
	if len(inv.Records) == 0 {
		return action.Reload(action.Silent()), nil
	}
	changed, err := a.deps.Users.ToggleUsersActive(ctx, inv.RecordIDs())
	if err != nil {
		return action.Response{}, fmt.Errorf("toggle users: %w", err)
	}
	return action.Reload(action.Success(a.ctx.T("actions.toggle_active.done", changed))), nil
}

type exportCSV struct {
	ctx  action.Context
	deps Deps
}

func (a exportCSV) Definition() action.Definition {
	return action.Definition{
		Name:    "ExportCSV",
		Label:   "actions.export_csv.label",
		Confirm: "actions.export_csv.confirm",
		Fields: []action.Field{{
			ID:      "filename",
			Label:   "actions.export_csv.filename_field",
			Kind:    action.FieldText,
			Default: defaultExportFilename,
		}},
	}
}

func (exportCSV) Defaults(context.Context) map[string]string { return nil }

func (a exportCSV) Handle(ctx context.Context, inv action.Invocation) (action.Response, error) {
	if err := ctx.Err(); err != nil {
		return action.Response{}, err
	}
	columns := []string{"id"}
	if a.ctx.Resource != nil {
		hydrated, err := a.ctx.Resource.Hydrate(ctx, action.Hydration{View: action.ViewShow, User: inv.User})
		if err != nil {
			return action.Response{}, err
		}
		for _, column := range hydrated.Columns {
			if column != "id" {
				columns = append(columns, column)
			}
		}
	}

	file, err := os.CreateTemp(a.deps.downloadDir(), "avo-export-*.csv")
	if err != nil {
		return action.Response{}, fmt.Errorf("create export file: %w", err)
	}
	path := file.Name()
	if err := writeCSV(file, columns, inv.Records); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return action.Response{}, err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return action.Response{}, fmt.Errorf("close export file: %w", err)
	}

	resp := action.DownloadFile(path, exportFilename(inv.Field("filename")))
	resp.Download.ContentType = "text/csv; charset=utf-8"
	resp.Download.RemoveAfter = true
	return resp, nil
}

func writeCSV(file *os.File, columns []string, records []action.Record) error {
	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(columns))
		row[0] = record.ID
		for i, column := range columns[1:] {
			row[i+1] = templates.FormatCell(record.Values[column])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

func exportFilename(value string) string {
	name := filepath.Base(strings.TrimSpace(value))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return defaultExportFilename
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

type sendReminder struct {
	ctx  action.Context
	deps Deps
}

func (a sendReminder) Definition() action.Definition {
	return action.Definition{
		Name:    "SendReminder",
		Label:   "actions.send_reminder.label",
		Confirm: "actions.send_reminder.confirm",
		Fields: []action.Field{{
			ID:       "message",
			Label:    "actions.send_reminder.message_field",
			Kind:     action.FieldTextarea,
			Required: true,
		}},
	}
}

// Defaults prefills the message with the record's name when opened from one.
func (a sendReminder) Defaults(context.Context) map[string]string {
	if a.ctx.Record == nil {
		return nil
	}
	name := templates.FormatCell(a.ctx.Record.Values["name"])
	if name == "" {
		return nil
	}
	return map[string]string{"message": a.ctx.T("actions.send_reminder.greeting", name)}
}

func (a sendReminder) Handle(ctx context.Context, inv action.Invocation) (action.Response, error) {
	message := inv.Field("message")
	if message == "" {
		return action.Response{Messages: []action.Message{
			action.KeepModalOpen(a.ctx.T("actions.send_reminder.message_required")),
		}}, nil
	}
	now := a.deps.now()
	reminders := make([]storage.Reminder, 0, len(inv.Records))
	for _, record := range inv.Records {
		reminders = append(reminders, storage.Reminder{
			ID:        uuid.NewString(),
			UserID:    record.ID,
			Message:   message,
			SentBy:    inv.User.ID,
			CreatedAt: now,
		})
	}
	if err := a.deps.Users.PutReminders(ctx, reminders); err != nil {
		return action.Response{}, fmt.Errorf("queue reminders: %w", err)
	}
	return action.Redirect(
		action.Deferred(reminderLocation),
		action.Silent(),
		action.Success(a.ctx.T("actions.send_reminder.sent", len(reminders))),
	), nil
}

// reminderLocation narrows the listing to the recipient when there is one.
func reminderLocation(lc action.LocationContext) string {
	if lc.Resource == nil {
		return ""
	}
	if len(lc.Records) != 1 {
		return lc.Resource.IndexPath()
	}
	email := templates.FormatCell(lc.Records[0].Values["email"])
	return routepath.ResourceSearch(lc.Resource.Name(), email)
}

type rebuildSearchIndex struct {
	ctx  action.Context
	deps Deps
}

func (a rebuildSearchIndex) Definition() action.Definition {
	return action.Definition{
		Name:       "RebuildSearchIndex",
		Label:      "actions.rebuild_search_index.label",
		Confirm:    "actions.rebuild_search_index.confirm",
		Standalone: true,
	}
}

func (rebuildSearchIndex) Defaults(context.Context) map[string]string { return nil }

func (a rebuildSearchIndex) Handle(ctx context.Context, inv action.Invocation) (action.Response, error) {
	if err := a.deps.Maintainer.Reindex(ctx); err != nil {
		return action.Response{}, fmt.Errorf("rebuild search index: %w", err)
	}
	total, err := countUsers(ctx, a.deps.DB)
	if err != nil {
		return action.Response{}, err
	}
	return action.Redirect(
		action.Literal(inv.Resource.IndexPath()),
		action.Info(a.ctx.T("actions.rebuild_search_index.done", total)),
	), nil
}

func countUsers(ctx context.Context, db *sql.DB) (int, error) {
	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
