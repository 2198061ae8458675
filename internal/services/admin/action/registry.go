package action

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
)

// IDPrefix starts every public action identifier.
const IDPrefix = "avo_actions_"

// Registry maps canonical action names to factories. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]registryEntry
	order      []string
	byResource map[string][]string
}

type registryEntry struct {
	name    string
	factory Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:    map[string]registryEntry{},
		byResource: map[string][]string{},
	}
}

// Register adds an action under its canonical name and attaches it to the
// named resources.
func (r *Registry) Register(name string, factory Factory, resources ...string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("action name is required")
	}
	if factory == nil {
		return fmt.Errorf("action %s: factory is required", name)
	}
	if !isTypeName(name) {
		return fmt.Errorf("action %s: name must be a Go-style type name", name)
	}
	key := canonicalKey(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[key]; ok {
		return fmt.Errorf("action %s: identifier %s already registered by %s", name, Identifier(name), existing.name)
	}
	r.entries[key] = registryEntry{name: name, factory: factory}
	r.order = append(r.order, key)
	for _, resource := range resources {
		resource = strings.TrimSpace(resource)
		if resource == "" {
			continue
		}
		r.byResource[resource] = append(r.byResource[resource], key)
	}
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(name string, factory Factory, resources ...string) {
	if err := r.Register(name, factory, resources...); err != nil {
		panic(err)
	}
}

// Resolve finds the factory for a public identifier such as
// "avo_actions_toggle_active". Unknown identifiers are ACTION_NOT_FOUND.
func (r *Registry) Resolve(identifier string) (Factory, string, error) {
	slug := strings.TrimPrefix(strings.TrimSpace(identifier), IDPrefix)
	if slug == "" {
		return nil, "", apperrors.New(apperrors.CodeActionNotFound, "action identifier is required")
	}
	key := Camelize(slug)

	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, "", apperrors.WithMetadata(apperrors.CodeActionNotFound,
			fmt.Sprintf("action %q is not registered", identifier),
			map[string]string{"action_id": identifier})
	}
	return entry.factory, entry.name, nil
}

// Names lists canonical names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].name)
	}
	return out
}

// ForResource lists the canonical names of actions attached to a resource.
func (r *Registry) ForResource(resource string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := r.byResource[strings.TrimSpace(resource)]
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.entries[key].name)
	}
	return out
}

// Attached reports whether the named action is attached to resource.
func (r *Registry) Attached(resource string, name string) bool {
	key := canonicalKey(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, candidate := range r.byResource[strings.TrimSpace(resource)] {
		if candidate == key {
			return true
		}
	}
	return false
}

// Identifier returns the public identifier for a canonical name.
func Identifier(name string) string {
	return IDPrefix + Underscore(name)
}

// Camelize turns "toggle_active" into "ToggleActive".
func Camelize(slug string) string {
	var b strings.Builder
	for _, part := range strings.Split(slug, "_") {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// Underscore turns "ToggleActive" into "toggle_active" and "ExportCSV" into
// "export_csv".
func Underscore(name string) string {
	runes := []rune(strings.TrimSpace(name))
	var b strings.Builder
	for i, current := range runes {
		if unicode.IsUpper(current) && i > 0 {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(current))
	}
	return b.String()
}

// canonicalKey folds acronyms so a name and its identifier meet at one key.
func canonicalKey(name string) string {
	return Camelize(Underscore(name))
}

func isTypeName(name string) bool {
	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsUpper(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return true
}
