package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/avo/internal/platform/encryption"
	"github.com/louisbranch/avo/internal/platform/telemetry/metrics"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/i18n"
	"github.com/louisbranch/avo/internal/services/admin/module/actions"
	"github.com/louisbranch/avo/internal/services/admin/module/resources"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	routepath "github.com/louisbranch/avo/internal/services/admin/routepath"
	"github.com/louisbranch/avo/internal/services/admin/storage"
	"github.com/louisbranch/avo/internal/services/admin/templates"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HandlerConfig wires the admin application routes.
type HandlerConfig struct {
	Catalog  *resource.Catalog
	Registry *action.Registry
	Crypto   *encryption.Service
	// Audit is optional.
	Audit      storage.ActionRunStore
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
	Tracer     trace.Tracer
	Scheme     requestmeta.SchemePolicy
	RunTimeout time.Duration
}

// Handler routes admin dashboard requests.
type Handler struct {
	cfg       HandlerConfig
	resources *resources.Handler
	actions   *actions.Dispatcher
}

// NewHandler builds the HTTP handler for the admin application.
func NewHandler(cfg HandlerConfig) http.Handler {
	if cfg.Catalog == nil {
		cfg.Catalog = resource.NewCatalog()
	}
	if cfg.Registry == nil {
		cfg.Registry = action.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Handler{cfg: cfg}

	var (
		encrypter resources.Encrypter
		decrypter action.Decrypter
	)
	if cfg.Crypto != nil {
		encrypter = cfg.Crypto
		decrypter = cfg.Crypto
	}
	h.resources = resources.NewHandler(resources.Config{
		Catalog:   cfg.Catalog,
		Registry:  cfg.Registry,
		Encrypter: encrypter,
		Pages:     h.pageContext,
		Logger:    cfg.Logger,
		Scheme:    cfg.Scheme,
	})
	h.actions = actions.NewDispatcher(actions.Config{
		Registry:   cfg.Registry,
		Resources:  cfg.Catalog,
		Decrypter:  decrypter,
		Pages:      h.pageContext,
		Audit:      cfg.Audit,
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
		Tracer:     cfg.Tracer,
		Scheme:     cfg.Scheme,
		RunTimeout: cfg.RunTimeout,
	})
	return h.routes()
}

func (h *Handler) pageContext(w http.ResponseWriter, r *http.Request) templates.PageContext {
	loc, tag := i18n.Localize(w, r)
	page := templates.PageContext{
		Lang:         tag.String(),
		Loc:          loc,
		CurrentPath:  r.URL.Path,
		CurrentQuery: r.URL.RawQuery,
	}
	for _, res := range h.cfg.Catalog.All() {
		index := res.IndexPath()
		page.Nav = append(page.Nav, templates.NavItem{
			Label:  templates.T(loc, res.Label()),
			URL:    index,
			Active: r.URL.Path == index || strings.HasPrefix(r.URL.Path, index+"/"),
		})
	}
	return page
}

// routes wires the HTTP routes for the admin handler.
func (h *Handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(routepath.Root, h.handleRoot)
	resources.RegisterRoutes(mux, h.resources, h.actions)
	return mux
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != routepath.Root {
		http.NotFound(w, r)
		return
	}
	h.resources.HandleResourcesRoot(w, r)
}
