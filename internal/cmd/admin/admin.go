// Package admin parses admin command flags and launches the admin service.
package admin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/avo/internal/platform/cmd"
	"github.com/louisbranch/avo/internal/platform/config"
	"github.com/louisbranch/avo/internal/platform/requestctx"
	"github.com/louisbranch/avo/internal/services/admin"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	"go.uber.org/zap"
)

// Config holds the admin command configuration.
type Config struct {
	HTTPAddr      string `env:"AVO_ADMIN_ADDR" envDefault:":8082"`
	DBPath        string `env:"AVO_ADMIN_DB_PATH" envDefault:"data/admin.db"`
	SecretKeyBase string `env:"AVO_SECRET_KEY_BASE"`
	LoginURL      string `env:"AVO_ADMIN_LOGIN_URL"`
	LogLevel      string `env:"AVO_LOG_LEVEL" envDefault:"info"`
	DownloadDir   string `env:"AVO_ADMIN_DOWNLOAD_DIR"`
	SeedDemo      bool   `env:"AVO_ADMIN_SEED_DEMO" envDefault:"false"`

	// DisableAuth serves every request without a session.
	DisableAuth         bool `env:"AVO_ADMIN_DISABLE_AUTH" envDefault:"false"`
	TrustForwardedProto bool `env:"AVO_ADMIN_TRUST_FORWARDED_PROTO" envDefault:"false"`

	// IssueToken, when set, prints a session token for that user id and
	// exits instead of serving.
	IssueToken string
	TokenTTL   time.Duration
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return parseFlags(cfg, fs, args)
}

// parseConfigEnv is ParseConfig with an explicit environment.
func parseConfigEnv(fs *flag.FlagSet, args []string, environment map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvMap(&cfg, environment); err != nil {
		return Config{}, err
	}
	return parseFlags(cfg, fs, args)
}

func parseFlags(cfg Config, fs *flag.FlagSet, args []string) (Config, error) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "admin SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "directory for export files")
	fs.BoolVar(&cfg.SeedDemo, "seed-demo", cfg.SeedDemo, "seed demo users into an empty database")
	fs.StringVar(&cfg.IssueToken, "issue-token", "", "print a session token for this user id and exit")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", admin.DefaultSessionTTL, "lifetime of an issued session token")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.IssueToken = strings.TrimSpace(cfg.IssueToken)
	return cfg, nil
}

// Run starts the admin server, or prints a session token when asked to.
func Run(ctx context.Context, cfg Config, stdout io.Writer) error {
	if cfg.IssueToken != "" {
		token, err := admin.IssueToken(cfg.SecretKeyBase, requestctx.Identity{UserID: cfg.IssueToken}, cfg.TokenTTL, time.Now())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		_, err = fmt.Fprintln(stdout, token)
		return err
	}

	logger, err := entrypoint.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceAdmin, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		server, err := admin.NewServer(ctx, serverConfig(cfg, logger))
		if err != nil {
			return fmt.Errorf("init admin server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve admin: %w", err)
		}
		return nil
	})
}

func serverConfig(cfg Config, logger *zap.Logger) admin.Config {
	out := admin.Config{
		HTTPAddr:      cfg.HTTPAddr,
		DBPath:        cfg.DBPath,
		SecretKeyBase: cfg.SecretKeyBase,
		DownloadDir:   cfg.DownloadDir,
		SeedDemo:      cfg.SeedDemo,
		Scheme:        requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		Logger:        logger,
	}
	if !cfg.DisableAuth {
		out.AuthConfig = &admin.AuthConfig{LoginURL: cfg.LoginURL}
	}
	return out
}
