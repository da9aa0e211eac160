package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetboard/internal/config"
	"github.com/JonMunkholm/sheetboard/internal/core"
	"github.com/JonMunkholm/sheetboard/internal/logging"
	"github.com/JonMunkholm/sheetboard/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	if cfg.Source.AllowInsecureTransport {
		slog.Warn("certificate verification is DISABLED for the data source; use only for local diagnostics")
	}
	if !cfg.DesignatedConfigured() {
		slog.Warn("designated summary dataset is not among the configured datasets",
			"designated", cfg.Summary.Dataset,
		)
	}

	source := core.NewHTTPSource(core.HTTPSourceConfig{
		Root:          cfg.Source.Root,
		SheetID:       cfg.Source.SheetID,
		Timeout:       cfg.Source.FetchTimeout,
		AllowInsecure: cfg.Source.AllowInsecureTransport,
	})
	loader := core.NewLoader(source, cfg.Source.FetchConcurrency)
	store := core.NewStore(loader, cfg.Source.DatasetNames)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// The first snapshot is loaded before serving so the first page has data.
	store.Reload(jobCtx)

	go store.StartRefreshScheduler(jobCtx, cfg.Source.ReloadInterval)

	server := web.NewServer(store, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
