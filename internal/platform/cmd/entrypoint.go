// Package cmd is the startup plumbing for the avo commands: config from
// the environment, flags on top, a zap logger, and telemetry around the run
// loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/avo/internal/platform/config"
	"github.com/louisbranch/avo/internal/platform/otel"
	"github.com/louisbranch/avo/internal/platform/timeouts"
	"go.uber.org/zap"
)

// ServiceAdmin names the admin service in telemetry and logs.
const ServiceAdmin = "admin"

// RunOptions tunes RunWithTelemetryAndOptions.
type RunOptions struct {
	// Logger reports lifecycle events. Nil discards them.
	Logger *zap.Logger
}

// ParseConfig fills cfg from the process environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs. Flags are registered with the
// environment values as defaults, so flags override the environment.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	return fs.Parse(append([]string{}, args...))
}

// NewLogger returns a JSON production logger. An empty level means info.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zap.ParseAtomicLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		zcfg.Level = parsed
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// RunWithTelemetryAndOptions installs tracing for service, runs run, and
// flushes telemetry once run returns.
func RunWithTelemetryAndOptions(ctx context.Context, service string, opts RunOptions, run func(context.Context) error) error {
	if service = strings.TrimSpace(service); service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("service", service))

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	started := time.Now()
	logger.Info("service starting")

	runErr := run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryShutdown)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
	logger.Info("service stopped", zap.Duration("uptime", time.Since(started)), zap.Error(runErr))
	return runErr
}
