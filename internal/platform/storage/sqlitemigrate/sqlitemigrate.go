// Package sqlitemigrate runs forward-only SQL migrations from an fs.FS
// against SQLite. Each file runs once, in name order, inside its own
// transaction, and its up section is fingerprinted so an edited migration
// is reported instead of silently skipped.
package sqlitemigrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"

	createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    checksum TEXT NOT NULL,
    applied_at INTEGER NOT NULL
)`
)

// Applied describes one recorded migration.
type Applied struct {
	Name      string
	Checksum  string
	AppliedAt time.Time
}

type migration struct {
	key      string
	up       string
	checksum string
}

// ApplyMigrations runs every *.sql file directly under root that has not
// been recorded yet. An empty root means the top of fsys.
func ApplyMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, root string) error {
	if db == nil {
		return fmt.Errorf("sql db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := load(fsys, root)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}
	done, err := ledger(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range plan {
		if prior, ok := done[m.key]; ok {
			if prior.Checksum != m.checksum {
				return fmt.Errorf("migration %s changed after it was applied", m.key)
			}
			continue
		}
		if err := m.apply(ctx, db); err != nil {
			return fmt.Errorf("migration %s: %w", m.key, err)
		}
	}
	return nil
}

// List returns the recorded migrations in name order.
func List(ctx context.Context, db *sql.DB) ([]Applied, error) {
	done, err := ledger(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]Applied, 0, len(done))
	for _, a := range done {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Applied) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func load(fsys fs.FS, root string) ([]migration, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var plan []migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		file := path.Join(root, entry.Name())
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		up := ExtractUpMigration(string(raw))
		sum := sha256.Sum256([]byte(strings.TrimSpace(up)))
		plan = append(plan, migration{key: file, up: up, checksum: hex.EncodeToString(sum[:])})
	}
	slices.SortFunc(plan, func(a, b migration) int { return strings.Compare(a.key, b.key) })
	return plan, nil
}

func ledger(ctx context.Context, db *sql.DB) (map[string]Applied, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	defer rows.Close()
	done := map[string]Applied{}
	for rows.Next() {
		var a Applied
		var at int64
		if err := rows.Scan(&a.Name, &a.Checksum, &at); err != nil {
			return nil, fmt.Errorf("scan migration ledger: %w", err)
		}
		a.AppliedAt = time.UnixMilli(at).UTC()
		done[a.Name] = a
	}
	return done, rows.Err()
}

func (m migration) apply(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if strings.TrimSpace(m.up) != "" {
		if _, err := tx.ExecContext(ctx, m.up); err != nil && !IsAlreadyExistsError(err) {
			return fmt.Errorf("exec: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (name, checksum, applied_at) VALUES (?, ?, ?)`,
		m.key, m.checksum, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExtractUpMigration returns the text between the Up marker and the Down
// marker. Content without an Up marker is returned whole.
func ExtractUpMigration(content string) string {
	_, body, found := strings.Cut(content, upMarker)
	if !found {
		return content
	}
	body, _, _ = strings.Cut(body, downMarker)
	return body
}

// IsAlreadyExistsError reports whether err is SQLite refusing DDL that has
// already taken effect.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
