// Package sqlite stores action runs, users and reminders in SQLite. The
// schema is embedded and migrated forward when the store opens.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitemigrate "github.com/louisbranch/avo/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/avo/internal/services/admin/storage"
	"github.com/louisbranch/avo/internal/services/admin/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides a SQLite-backed store implementing admin storage interfaces.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at the provided path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// RecordActionRun appends one audit row.
func (s *Store) RecordActionRun(ctx context.Context, run storage.ActionRun) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	run.Action = strings.TrimSpace(run.Action)
	if run.Action == "" {
		return fmt.Errorf("action is required")
	}
	if strings.TrimSpace(run.Outcome) == "" {
		return fmt.Errorf("outcome is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO action_runs (id, action, resource, user_id, records, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Action,
		run.Resource,
		run.UserID,
		run.Records,
		run.Outcome,
		toMillis(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record action run: %w", err)
	}
	return nil
}

// ListActionRuns returns the most recent runs first.
func (s *Store) ListActionRuns(ctx context.Context, limit int) ([]storage.ActionRun, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, action, resource, user_id, records, outcome, created_at
		   FROM action_runs
		  ORDER BY created_at DESC, id
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list action runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.ActionRun
	for rows.Next() {
		var run storage.ActionRun
		var createdAt int64
		if err := rows.Scan(&run.ID, &run.Action, &run.Resource, &run.UserID, &run.Records, &run.Outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan action run: %w", err)
		}
		run.CreatedAt = fromMillis(createdAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action runs: %w", err)
	}
	return runs, nil
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, user storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return fmt.Errorf("email is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, active, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name, active = excluded.active`,
		user.ID,
		user.Email,
		strings.TrimSpace(user.Name),
		boolToInt(user.Active),
		toMillis(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser returns one user by id.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	var user storage.User
	var active int
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, name, active, created_at FROM users WHERE id = ?`,
		strings.TrimSpace(id),
	).Scan(&user.ID, &user.Email, &user.Name, &active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Active = active == 1
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// ToggleUsersActive flips the active flag of the given users and returns
// how many rows changed.
func (s *Store) ToggleUsersActive(ctx context.Context, ids []string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(ids)
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET active = 1 - active WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("toggle users: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("toggle users rows: %w", err)
	}
	return int(affected), nil
}

// PutReminders stores reminders in one transaction.
func (s *Store) PutReminders(ctx context.Context, reminders []storage.Reminder) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reminders: %w", err)
	}
	for _, reminder := range reminders {
		if strings.TrimSpace(reminder.Message) == "" {
			_ = tx.Rollback()
			return fmt.Errorf("reminder message is required")
		}
		if reminder.ID == "" {
			reminder.ID = uuid.NewString()
		}
		if reminder.CreatedAt.IsZero() {
			reminder.CreatedAt = s.now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_reminders (id, user_id, message, sent_by, created_at) VALUES (?, ?, ?, ?, ?)`,
			reminder.ID,
			reminder.UserID,
			reminder.Message,
			reminder.SentBy,
			toMillis(reminder.CreatedAt),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("put reminder: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reminders: %w", err)
	}
	return nil
}

// ListReminders returns reminders for a user, oldest first.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]storage.Reminder, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, user_id, message, sent_by, created_at
		   FROM user_reminders
		  WHERE user_id = ?
		  ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []storage.Reminder
	for rows.Next() {
		var reminder storage.Reminder
		var createdAt int64
		if err := rows.Scan(&reminder.ID, &reminder.UserID, &reminder.Message, &reminder.SentBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminder.CreatedAt = fromMillis(createdAt)
		out = append(out, reminder)
	}
	return out, rows.Err()
}

// Reindex rebuilds every index in the database.
func (s *Store) Reindex(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, "REINDEX"); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	return nil
}

func inClause(ids []string) (string, []any) {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

var _ storage.Store = (*Store)(nil)
