package resource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/services/admin/action"
)

// Listing is one rendered page of a resource.
type Listing struct {
	Records []action.Record
	// SelectAllSQL reproduces the listing so "select all" can target it.
	SelectAllSQL string
}

// Resource is an action.Resource that can also be listed.
type Resource interface {
	action.Resource
	// Label is a catalog key.
	Label() string
	Columns() []string
	List(ctx context.Context, search string) (Listing, error)
}

// Catalog holds the resources mounted in the admin, in registration order.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]Resource
	order  []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: map[string]Resource{}}
}

// Add mounts a resource. Names must be unique.
func (c *Catalog) Add(resource Resource) error {
	if resource == nil {
		return fmt.Errorf("resource is required")
	}
	name := strings.TrimSpace(resource.Name())
	if name == "" {
		return fmt.Errorf("resource name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("resource %s already mounted", name)
	}
	c.byName[name] = resource
	c.order = append(c.order, name)
	return nil
}

// Lookup returns the named resource or RESOURCE_NOT_FOUND.
func (c *Catalog) Lookup(name string) (Resource, error) {
	name = strings.TrimSpace(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	resource, ok := c.byName[name]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeResourceNotFound,
			fmt.Sprintf("resource %q is not mounted", name),
			map[string]string{"resource": name})
	}
	return resource, nil
}

// All lists resources in registration order.
func (c *Catalog) All() []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// First returns the first mounted resource, if any.
func (c *Catalog) First() (Resource, bool) {
	all := c.All()
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}
