package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/avo/internal/services/admin/storage"
)

var demoUsers = []struct {
	email  string
	name   string
	active bool
}{
	{email: "ada@example.com", name: "Ada Lovelace", active: true},
	{email: "grace@example.com", name: "Grace Hopper", active: true},
	{email: "alan@example.com", name: "Alan Turing", active: false},
	{email: "katherine@example.com", name: "Katherine Johnson", active: true},
	{email: "edsger@example.com", name: "Edsger Dijkstra", active: false},
}

// SeedDemoUsers inserts sample users when the users table is empty. It
// returns how many rows were inserted.
func (s *Store) SeedDemoUsers(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	base := s.now().UTC().Add(-time.Duration(len(demoUsers)) * time.Hour)
	for i, demo := range demoUsers {
		user := storage.User{
			ID:        uuid.NewString(),
			Email:     demo.email,
			Name:      demo.name,
			Active:    demo.active,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.PutUser(ctx, user); err != nil {
			return i, fmt.Errorf("seed %s: %w", demo.email, err)
		}
	}
	return len(demoUsers), nil
}
