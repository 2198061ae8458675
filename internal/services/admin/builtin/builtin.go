package builtin

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	"github.com/louisbranch/avo/internal/services/admin/storage"
)

// UsersResource is the route name of the users resource.
const UsersResource = "users"

// Maintainer runs store upkeep.
type Maintainer interface {
	Reindex(ctx context.Context) error
}

// Deps are the collaborators built-in resources and actions use.
type Deps struct {
	DB          *sql.DB
	Users       storage.UserStore
	Maintainer  Maintainer
	DownloadDir string
	Now         func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) downloadDir() string {
	if d.DownloadDir != "" {
		return d.DownloadDir
	}
	return os.TempDir()
}

// Register adds the users resource to catalog and its actions to registry.
func Register(catalog *resource.Catalog, registry *action.Registry, deps Deps) error {
	if catalog == nil || registry == nil {
		return fmt.Errorf("catalog and registry are required")
	}
	if deps.Users == nil || deps.Maintainer == nil {
		return fmt.Errorf("user store and maintainer are required")
	}
	users, err := resource.NewSQL(deps.DB, resource.Table{
		Name:          UsersResource,
		Label:         "admin.resources.users",
		Table:         "users",
		Columns:       []string{"email", "name", "active", "created_at"},
		IndexColumns:  []string{"email", "name", "active"},
		SearchColumns: []string{"email", "name"},
		OrderBy:       "email",
	})
	if err != nil {
		return fmt.Errorf("users resource: %w", err)
	}
	if err := catalog.Add(users); err != nil {
		return err
	}

	factories := []struct {
		name    string
		factory action.Factory
	}{
		{"ToggleActive", func(c action.Context) action.Action { return toggleActive{ctx: c, deps: deps} }},
		{"ExportCSV", func(c action.Context) action.Action { return exportCSV{ctx: c, deps: deps} }},
		{"SendReminder", func(c action.Context) action.Action { return sendReminder{ctx: c, deps: deps} }},
		{"RebuildSearchIndex", func(c action.Context) action.Action { return rebuildSearchIndex{ctx: c, deps: deps} }},
	}
	for _, entry := range factories {
		if err := registry.Register(entry.name, entry.factory, UsersResource); err != nil {
			return err
		}
	}
	return nil
}
