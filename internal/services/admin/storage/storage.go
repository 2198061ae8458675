package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ActionRun is one audited action execution.
type ActionRun struct {
	ID       string
	Action   string
	Resource string
	UserID   string
	Records  int
	// Outcome is the emitted result, e.g. "reload" or "error".
	Outcome   string
	CreatedAt time.Time
}

// User is an account managed through the admin.
type User struct {
	ID        string
	Email     string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Reminder is a note queued for a user.
type Reminder struct {
	ID        string
	UserID    string
	Message   string
	SentBy    string
	CreatedAt time.Time
}

// ActionRunStore persists the action audit trail.
type ActionRunStore interface {
	RecordActionRun(ctx context.Context, run ActionRun) error
	ListActionRuns(ctx context.Context, limit int) ([]ActionRun, error)
}

// UserStore mutates user accounts.
type UserStore interface {
	PutUser(ctx context.Context, user User) error
	ToggleUsersActive(ctx context.Context, ids []string) (int, error)
	PutReminders(ctx context.Context, reminders []Reminder) error
	ListReminders(ctx context.Context, userID string) ([]Reminder, error)
}

// Store is a composite interface for admin storage concerns.
type Store interface {
	ActionRunStore
	UserStore
	// DB exposes the handle resources query directly.
	DB() *sql.DB
	Reindex(ctx context.Context) error
	Close() error
}
