package resource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/routepath"
)

const defaultPageSize = 50

// Table describes how a SQL table is exposed as a resource.
type Table struct {
	// Name is the resource name used in routes.
	Name  string
	Label string
	Table string
	// IDColumn defaults to "id".
	IDColumn string
	// Columns are selected for every record; the id column is added when
	// missing.
	Columns []string
	// IndexColumns limit what the listing shows. Defaults to Columns.
	IndexColumns  []string
	SearchColumns []string
	// OrderBy is a column name; defaults to the id column.
	OrderBy  string
	PageSize int
}

// SQLResource serves a Table from a database handle.
type SQLResource struct {
	db    *sql.DB
	table Table
}

// NewSQL validates the table description and binds it to db.
func NewSQL(db *sql.DB, table Table) (*SQLResource, error) {
	if db == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	table.Name = strings.TrimSpace(table.Name)
	table.Table = strings.TrimSpace(table.Table)
	if table.Name == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	if table.Table == "" {
		return nil, fmt.Errorf("resource %s: table is required", table.Name)
	}
	if table.IDColumn == "" {
		table.IDColumn = "id"
	}
	if !contains(table.Columns, table.IDColumn) {
		table.Columns = append([]string{table.IDColumn}, table.Columns...)
	}
	if len(table.IndexColumns) == 0 {
		table.IndexColumns = table.Columns
	}
	for _, column := range table.IndexColumns {
		if !contains(table.Columns, column) {
			return nil, fmt.Errorf("resource %s: index column %s is not selected", table.Name, column)
		}
	}
	if table.OrderBy == "" {
		table.OrderBy = table.IDColumn
	}
	if table.PageSize <= 0 {
		table.PageSize = defaultPageSize
	}
	return &SQLResource{db: db, table: table}, nil
}

// Name returns the route name.
func (r *SQLResource) Name() string { return r.table.Name }

// Label returns the catalog key of the resource title.
func (r *SQLResource) Label() string { return r.table.Label }

// Columns returns the listing columns.
func (r *SQLResource) Columns() []string {
	return append([]string(nil), r.table.IndexColumns...)
}

// IndexPath returns the listing route.
func (r *SQLResource) IndexPath() string {
	return routepath.Resource(r.table.Name)
}

// FindByID loads one record.
func (r *SQLResource) FindByID(ctx context.Context, id string) (action.Record, error) {
	records, err := r.FindByIDs(ctx, []string{id})
	if err != nil {
		return action.Record{}, err
	}
	return records[0], nil
}

// FindByIDs loads every id in order. A missing id is RECORD_NOT_FOUND.
func (r *SQLResource) FindByIDs(ctx context.Context, ids []string) ([]action.Record, error) {
	if len(ids) == 0 {
		return []action.Record{}, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	query := r.baseSelect() + " WHERE " + quoteIdent(r.table.IDColumn) +
		" IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")"
	found, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]action.Record, len(found))
	for _, record := range found {
		byID[record.ID] = record
	}
	out := make([]action.Record, 0, len(ids))
	var missing []string
	for _, id := range ids {
		record, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, record)
	}
	if len(missing) > 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeRecordNotFound,
			fmt.Sprintf("%s: records not found: %s", r.table.Name, strings.Join(missing, ", ")),
			map[string]string{"resource": r.table.Name, "ids": strings.Join(missing, ",")})
	}
	return out, nil
}

// FindBySQL runs a select-all query previously produced by List.
func (r *SQLResource) FindBySQL(ctx context.Context, query string) ([]action.Record, error) {
	query = strings.TrimSpace(query)
	if !strings.HasPrefix(query, r.baseSelect()) {
		return nil, apperrors.New(apperrors.CodeSelectedQueryInvalid,
			fmt.Sprintf("%s: query does not select from %s", r.table.Name, r.table.Table))
	}
	return r.query(ctx, query)
}

// Hydrate fills the columns shown in the requested view.
func (r *SQLResource) Hydrate(_ context.Context, h action.Hydration) (action.Hydration, error) {
	switch h.View {
	case action.ViewIndex:
		h.Columns = r.Columns()
	default:
		h.Columns = append([]string(nil), r.table.Columns...)
	}
	return h, nil
}

// List returns the first page of records matching search along with the
// SQL selecting every match.
func (r *SQLResource) List(ctx context.Context, search string) (Listing, error) {
	selectAll := r.listingSQL(search)
	records, err := r.query(ctx, fmt.Sprintf("%s LIMIT %d", selectAll, r.table.PageSize))
	if err != nil {
		return Listing{}, err
	}
	return Listing{Records: records, SelectAllSQL: selectAll}, nil
}

func (r *SQLResource) baseSelect() string {
	columns := make([]string, 0, len(r.table.Columns))
	for _, column := range r.table.Columns {
		columns = append(columns, quoteIdent(column))
	}
	return "SELECT " + strings.Join(columns, ", ") + " FROM " + quoteIdent(r.table.Table)
}

func (r *SQLResource) listingSQL(search string) string {
	var b strings.Builder
	b.WriteString(r.baseSelect())
	search = strings.TrimSpace(search)
	if search != "" && len(r.table.SearchColumns) > 0 {
		pattern := quoteLiteral("%" + escapeLike(search) + "%")
		clauses := make([]string, 0, len(r.table.SearchColumns))
		for _, column := range r.table.SearchColumns {
			clauses = append(clauses, quoteIdent(column)+" LIKE "+pattern+` ESCAPE '\'`)
		}
		b.WriteString(" WHERE (" + strings.Join(clauses, " OR ") + ")")
	}
	b.WriteString(" ORDER BY " + quoteIdent(r.table.OrderBy) + ", " + quoteIdent(r.table.IDColumn))
	return b.String()
}

func (r *SQLResource) query(ctx context.Context, query string, args ...any) ([]action.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", r.table.Name, err)
	}
	records := []action.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table.Name, err)
		}
		record := action.Record{Values: make(map[string]any, len(columns))}
		for i, column := range columns {
			value := values[i]
			if raw, ok := value.([]byte); ok {
				value = string(raw)
			}
			record.Values[column] = value
			if column == r.table.IDColumn {
				record.ID = fmt.Sprint(value)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table.Name, err)
	}
	return records, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

var _ Resource = (*SQLResource)(nil)
