package action

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
)

// Reserved form fields carrying the record selection.
const (
	FieldResourceIDs   = "avo_resource_ids"
	FieldSelectedQuery = "avo_selected_query"
)

// SelectAllPurpose scopes encrypted select-all queries.
const SelectAllPurpose = "select_all"

// DefaultMessageKey is the catalog key shown when an action says nothing.
const DefaultMessageKey = "actions.ran_successfully"

// Resource is the collection an action runs against.
type Resource interface {
	Name() string
	// IndexPath is the listing page, used as the fallback location.
	IndexPath() string
	FindByID(ctx context.Context, id string) (Record, error)
	// FindByIDs returns every record, or an error when any id is missing.
	FindByIDs(ctx context.Context, ids []string) ([]Record, error)
	// FindBySQL runs a previously minted select-all query.
	FindBySQL(ctx context.Context, query string) ([]Record, error)
	// Hydrate binds the resource to a view for one request.
	Hydrate(ctx context.Context, h Hydration) (Hydration, error)
}

// Hydration is a resource bound to a request.
type Hydration struct {
	View   View
	User   User
	Record *Record
	// Columns is filled by Hydrate with the attributes shown in View.
	Columns []string
}

// Decrypter opens purpose-scoped tokens.
type Decrypter interface {
	Decrypt(token string, purpose string) (string, error)
}

// Selector is the record selection submitted with an action.
type Selector struct {
	IDs   []string
	Query string
}

// UsesQuery reports whether the select-all query takes precedence.
func (s Selector) UsesQuery() bool {
	return s.Query != ""
}

// Invocation is everything an action handler receives.
type Invocation struct {
	// Fields holds submitted values without the reserved selection keys.
	Fields   map[string]string
	User     User
	Resource Resource
	Selector Selector
	// Records is nil for standalone actions.
	Records []Record
}

// Field returns a trimmed submitted value.
func (inv Invocation) Field(id string) string {
	return strings.TrimSpace(inv.Fields[id])
}

// RecordIDs lists the ids of the loaded records.
func (inv Invocation) RecordIDs() []string {
	ids := make([]string, 0, len(inv.Records))
	for _, record := range inv.Records {
		ids = append(ids, record.ID)
	}
	return ids
}

// LocationContext exposes the invocation to deferred locations.
func (inv Invocation) LocationContext(referer string) LocationContext {
	return LocationContext{
		Resource: inv.Resource,
		User:     inv.User,
		Records:  inv.Records,
		Fields:   inv.Fields,
		Referer:  referer,
	}
}

// SplitIDs splits a comma separated id list, dropping blanks.
func SplitIDs(raw string) []string {
	ids := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

// WithoutReserved copies fields without the selection keys.
func WithoutReserved(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		if key == FieldResourceIDs || key == FieldSelectedQuery {
			continue
		}
		out[key] = value
	}
	return out
}

// BuildParams are the inputs to BuildInvocation.
type BuildParams struct {
	Fields     map[string]string
	User       User
	Resource   Resource
	Standalone bool
	Decrypter  Decrypter
}

// BuildInvocation parses the selection and loads the targeted records.
func BuildInvocation(ctx context.Context, params BuildParams) (Invocation, error) {
	if params.Resource == nil {
		return Invocation{}, apperrors.New(apperrors.CodeResourceNotFound, "resource is required")
	}
	selector := Selector{
		IDs:   SplitIDs(params.Fields[FieldResourceIDs]),
		Query: strings.TrimSpace(params.Fields[FieldSelectedQuery]),
	}
	inv := Invocation{
		Fields:   WithoutReserved(params.Fields),
		User:     params.User,
		Resource: params.Resource,
		Selector: selector,
	}
	if params.Standalone {
		return inv, nil
	}

	if selector.UsesQuery() {
		if params.Decrypter == nil {
			return Invocation{}, apperrors.New(apperrors.CodeSelectedQueryInvalid, "no decrypter configured")
		}
		query, err := params.Decrypter.Decrypt(selector.Query, SelectAllPurpose)
		if err != nil {
			return Invocation{}, apperrors.Wrap(apperrors.CodeSelectedQueryInvalid, "decrypt selected query", err)
		}
		records, err := params.Resource.FindBySQL(ctx, query)
		if err != nil {
			return Invocation{}, fmt.Errorf("find %s by query: %w", params.Resource.Name(), err)
		}
		inv.Records = records
		return inv, nil
	}

	records, err := params.Resource.FindByIDs(ctx, selector.IDs)
	if err != nil {
		return Invocation{}, fmt.Errorf("find %s by ids: %w", params.Resource.Name(), err)
	}
	inv.Records = records
	return inv, nil
}
