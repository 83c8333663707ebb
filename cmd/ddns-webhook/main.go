// ddns-webhook receives DynDNS2-style update requests, authenticates them
// against a per-hostname credential map, and forwards authorized updates
// to the DNSimple record API as idempotent upserts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nijave/ddns-webhook/internal/config"
	"github.com/nijave/ddns-webhook/internal/credentials"
	"github.com/nijave/ddns-webhook/internal/health"
	"github.com/nijave/ddns-webhook/internal/metrics"
	"github.com/nijave/ddns-webhook/internal/resolver"
	"github.com/nijave/ddns-webhook/internal/server"
	"github.com/nijave/ddns-webhook/providers/dnsimple"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-01"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration first; malformed configuration must never serve.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("ddns-webhook starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
	)

	store, err := credentials.New(cfg.Credentials, logger)
	if err != nil {
		return fmt.Errorf("building credential store: %w", err)
	}
	logger.Info("credential store loaded", slog.Int("hostnames", store.Len()))

	recordClient, err := dnsimple.New(&dnsimple.Config{
		AccountID:   cfg.AccountID,
		APIKey:      cfg.APIKey,
		APIEndpoint: cfg.APIEndpoint,
		Zone:        cfg.Zone,
		TTL:         cfg.RecordTTL,
		Timeout:     cfg.ProviderTimeout,
	}, dnsimple.WithProviderLogger(logger))
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}

	res := resolver.New(recordClient,
		resolver.WithLogger(logger),
		resolver.WithTTL(cfg.RecordTTL),
	)

	webhookServer := server.New(cfg.ListenPort, store, res,
		server.WithLogger(logger),
	)

	healthServer := health.New(cfg.HealthPort,
		health.WithLogger(logger),
	)
	healthServer.RegisterChecker("provider:dnsimple", func(ctx context.Context) error {
		return recordClient.Ping(ctx)
	})

	if err := webhookServer.Start(); err != nil {
		return fmt.Errorf("starting webhook server: %w", err)
	}
	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	logger.Info("ddns-webhook ready",
		slog.Int("listen_port", cfg.ListenPort),
		slog.Int("health_port", cfg.HealthPort),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webhookServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("webhook server shutdown error", slog.String("error", err.Error()))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("ddns-webhook shutdown complete")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}
