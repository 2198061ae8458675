package resources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/louisbranch/avo/internal/platform/requestctx"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/flash"
	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	"github.com/louisbranch/avo/internal/services/admin/routepath"
	"github.com/louisbranch/avo/internal/services/admin/templates"
	"go.uber.org/zap"
)

// DefaultSelectAllTTL bounds how long a listing's select-all token is valid.
const DefaultSelectAllTTL = time.Hour

// Catalog lists and finds mounted resources.
type Catalog interface {
	All() []resource.Resource
	Lookup(name string) (resource.Resource, error)
}

// Encrypter seals purpose-scoped tokens.
type Encrypter interface {
	Encrypt(message string, purpose string, ttl time.Duration) (string, error)
}

// Config wires a Handler.
type Config struct {
	Catalog      Catalog
	Registry     *action.Registry
	Encrypter    Encrypter
	Pages        func(w http.ResponseWriter, r *http.Request) templates.PageContext
	Logger       *zap.Logger
	Scheme       requestmeta.SchemePolicy
	SelectAllTTL time.Duration
}

// Handler serves resource listings.
type Handler struct {
	cfg Config
}

// NewHandler builds a listing handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Registry == nil {
		cfg.Registry = action.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SelectAllTTL <= 0 {
		cfg.SelectAllTTL = DefaultSelectAllTTL
	}
	if cfg.Pages == nil {
		cfg.Pages = func(http.ResponseWriter, *http.Request) templates.PageContext {
			return templates.PageContext{}
		}
	}
	return &Handler{cfg: cfg}
}

// HandleResourcesRoot sends the operator to the first mounted resource.
func (h *Handler) HandleResourcesRoot(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Catalog == nil {
		http.NotFound(w, r)
		return
	}
	all := h.cfg.Catalog.All()
	if len(all) == 0 {
		http.NotFound(w, r)
		return
	}
	httpx.WriteRedirect(w, r, all[0].IndexPath())
}

// HandleResourceIndex renders one resource listing.
func (h *Handler) HandleResourceIndex(w http.ResponseWriter, r *http.Request, resourceName string) {
	page := h.cfg.Pages(w, r)
	for _, notice := range flash.ReadAndClear(w, r, h.cfg.Scheme) {
		page.Flashes = append(page.Flashes, templates.FlashView{Kind: string(notice.Kind), Body: notice.Body})
	}
	if h.cfg.Catalog == nil {
		http.NotFound(w, r)
		return
	}
	res, err := h.cfg.Catalog.Lookup(resourceName)
	if err != nil {
		httpx.WriteError(w, r, h.cfg.Logger, page.Loc, err)
		return
	}

	ctx := r.Context()
	user := currentUser(ctx)
	hydrated, err := res.Hydrate(ctx, action.Hydration{View: action.ViewIndex, User: user})
	if err != nil {
		httpx.WriteError(w, r, h.cfg.Logger, page.Loc, err)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	listing, err := res.List(ctx, search)
	if err != nil {
		httpx.WriteError(w, r, h.cfg.Logger, page.Loc, err)
		return
	}

	view := templates.ResourceIndexView{
		Name:      res.Name(),
		Title:     templates.T(page.Loc, res.Label()),
		SearchURL: res.IndexPath(),
		Search:    search,
		Columns:   hydrated.Columns,
		Rows:      rows(listing.Records, hydrated.Columns),
		Actions:   h.actionLinks(page, res, user),
	}
	if h.cfg.Encrypter != nil && len(listing.Records) > 0 {
		token, err := h.cfg.Encrypter.Encrypt(listing.SelectAllSQL, action.SelectAllPurpose, h.cfg.SelectAllTTL)
		if err != nil {
			httpx.WriteError(w, r, h.cfg.Logger, page.Loc, err)
			return
		}
		view.SelectAllToken = token
	}
	templ.Handler(templates.ResourceIndexPage(page, view)).ServeHTTP(w, r)
}

func (h *Handler) actionLinks(page templates.PageContext, res resource.Resource, user action.User) []templates.ActionLink {
	names := h.cfg.Registry.ForResource(res.Name())
	links := make([]templates.ActionLink, 0, len(names))
	for _, name := range names {
		factory, _, err := h.cfg.Registry.Resolve(action.Identifier(name))
		if err != nil {
			h.cfg.Logger.Warn("resolve listed action", zap.String("action", name), zap.Error(err))
			continue
		}
		def := factory(action.Context{Resource: res, User: user, View: action.ViewIndex, Loc: page.Loc}).Definition()
		id := action.Identifier(name)
		links = append(links, templates.ActionLink{
			ID:         id,
			Label:      templates.T(page.Loc, def.Label),
			URL:        routepath.ResourceAction(res.Name(), id),
			Standalone: def.Standalone,
		})
	}
	return links
}

func rows(records []action.Record, columns []string) []templates.ResourceRow {
	out := make([]templates.ResourceRow, 0, len(records))
	for _, record := range records {
		cells := make([]string, 0, len(columns))
		for _, column := range columns {
			cells = append(cells, templates.FormatCell(record.Values[column]))
		}
		out = append(out, templates.ResourceRow{ID: record.ID, Cells: cells})
	}
	return out
}

func currentUser(ctx context.Context) action.User {
	identity, ok := requestctx.IdentityFromContext(ctx)
	if !ok {
		return action.User{}
	}
	return action.User{ID: identity.UserID, Email: identity.Email, Name: identity.Name, Roles: identity.Roles}
}

var _ Service = (*Handler)(nil)
