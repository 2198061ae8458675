package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/avo/internal/platform/encryption"
	platformotel "github.com/louisbranch/avo/internal/platform/otel"
	"github.com/louisbranch/avo/internal/platform/telemetry/metrics"
	"github.com/louisbranch/avo/internal/platform/timeouts"
	"github.com/louisbranch/avo/internal/services/admin/action"
	"github.com/louisbranch/avo/internal/services/admin/builtin"
	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	"github.com/louisbranch/avo/internal/services/admin/resource"
	routepath "github.com/louisbranch/avo/internal/services/admin/routepath"
	adminsqlite "github.com/louisbranch/avo/internal/services/admin/storage/sqlite"
	"github.com/louisbranch/avo/internal/services/admin/transport/httpmux"
	"go.uber.org/zap"
)

// Config defines the inputs for the admin operator process.
type Config struct {
	HTTPAddr string
	DBPath   string
	// SecretKeyBase keys select-all tokens and session tokens.
	SecretKeyBase string
	DownloadDir   string
	// SeedDemo fills an empty users table with sample operators.
	SeedDemo bool
	// AuthConfig enables token-based authentication when set.
	AuthConfig *AuthConfig
	Scheme     requestmeta.SchemePolicy
	Logger     *zap.Logger
}

// Server hosts the admin dashboard.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	store      *adminsqlite.Store
	logger     *zap.Logger
}

// NewServer builds a configured admin server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	crypto, err := encryption.New([]byte(config.SecretKeyBase))
	if err != nil {
		return nil, fmt.Errorf("configure encryption: %w", err)
	}

	store, err := openAdminStore(ctx, config.DBPath)
	if err != nil {
		return nil, err
	}
	if config.SeedDemo {
		seeded, err := store.SeedDemoUsers(ctx)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed demo users: %w", err)
		}
		if seeded > 0 {
			logger.Info("seeded demo users", zap.Int("count", seeded))
		}
	}

	catalog := resource.NewCatalog()
	registry := action.NewRegistry()
	if err := builtin.Register(catalog, registry, builtin.Deps{
		DB:          store.DB(),
		Users:       store,
		Maintainer:  store,
		DownloadDir: config.DownloadDir,
	}); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register builtin resources: %w", err)
	}

	recorder := metrics.NewRecorder()
	app := NewHandler(HandlerConfig{
		Catalog:    catalog,
		Registry:   registry,
		Crypto:     crypto,
		Audit:      store,
		Metrics:    recorder,
		Logger:     logger,
		Tracer:     platformotel.Tracer("avo/admin"),
		Scheme:     config.Scheme,
		RunTimeout: timeouts.ActionRun,
	})

	rootMux := http.NewServeMux()
	httpmux.MountOperational(rootMux, healthHandler(store), recorder.Handler())
	if auth := config.AuthConfig; auth != nil {
		auth.Scheme = config.Scheme
		if auth.SecretKeyBase == "" {
			auth.SecretKeyBase = config.SecretKeyBase
		}
		rootMux.Handle(routepath.Session, handleSession(*auth, logger, time.Now))
		app = requireAuth(app, *auth, logger, time.Now)
	}
	httpmux.MountAdminRoutes(rootMux, app)

	httpServer := &http.Server{
		Addr: httpAddr,
		Handler: httpx.Chain(rootMux,
			httpx.RequestID(),
			httpx.RecoverPanic(logger),
			httpx.AccessLog(logger),
		),
		ReadHeaderTimeout: timeouts.ReadHeader,
		IdleTimeout:       timeouts.Idle,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		store:      store,
		logger:     logger,
	}, nil
}

// Handler exposes the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return http.NotFoundHandler()
	}
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("admin server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	s.logger.Info("admin listening", zap.String("addr", s.httpAddr))
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the storage handle held by the server.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close admin store", zap.Error(err))
		}
	}
}

func openAdminStore(ctx context.Context, path string) (*adminsqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := adminsqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open admin sqlite store: %w", err)
	}
	return store, nil
}

func healthHandler(store *adminsqlite.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoragePing)
		defer cancel()
		if err := store.DB().PingContext(ctx); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
}
