package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/daap14/roster/api"
	"github.com/daap14/roster/internal/api"
	"github.com/daap14/roster/internal/auth"
	"github.com/daap14/roster/internal/config"
	"github.com/daap14/roster/internal/kv"
	"github.com/daap14/roster/internal/reconciler"
	"github.com/daap14/roster/internal/record"
	"github.com/daap14/roster/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	store := record.NewStore(storage, cfg.StorageKey, record.WithLogger(slog.Default()))
	if err := store.Load(ctx); err != nil {
		slog.Error("failed to load records", "key", cfg.StorageKey, "error", err)
		os.Exit(1)
	}
	slog.Info("records loaded", "backend", cfg.StorageBackend, "count", store.Len())

	if cfg.SeedFile != "" {
		if err := seedStore(ctx, store, cfg.SeedFile); err != nil {
			slog.Error("failed to seed records", "file", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
	}

	authService := auth.NewService(cfg.APIKeyHash, cfg.BcryptCost)
	if !authService.Enabled() {
		slog.Warn("API_KEY_HASH not set; record mutations through the JSON API and the HTML forms are unauthenticated")
	}

	ui, err := web.NewHandler(store, cfg.PageSize)
	if err != nil {
		slog.Error("failed to build HTML view", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterDeps{
		Store:          store,
		StorageBackend: cfg.StorageBackend,
		Version:        cfg.Version,
		PageSize:       cfg.PageSize,
		Auth:           authService,
		OpenAPISpec:    specpkg.OpenAPISpec,
		UI:             ui,
	})

	reconcilerCtx, reconcilerCancel := context.WithCancel(ctx)
	defer reconcilerCancel()
	if cfg.ReconcilerInterval > 0 {
		rec := reconciler.New(store, time.Duration(cfg.ReconcilerInterval)*time.Second)
		go rec.Start(reconcilerCtx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting roster server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		storage.Close()
		os.Exit(1)
	}

	reconcilerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		storage.Close()
		os.Exit(1)
	}

	if store.Dirty() {
		if err := store.Flush(shutdownCtx); err != nil {
			slog.Error("record list not written to storage before exit", "error", err)
		}
	}

	slog.Info("server stopped gracefully", "persistFailures", store.PersistFailures())
}

func setupLogger(level string) {
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

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

func openStorage(ctx context.Context, cfg *config.Config) (kv.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return kv.NewMemoryStorage(), nil
	case config.BackendSQLite:
		return kv.NewSQLiteStorage(ctx, cfg.StoragePath)
	case config.BackendPostgres:
		return kv.NewPostgresStorage(ctx, cfg.DatabaseURL)
	default:
		return kv.NewFileStorage(cfg.StoragePath)
	}
}

// seedStore creates the seed records when the store is empty.
func seedStore(ctx context.Context, store *record.Store, path string) error {
	seeds, err := record.LoadSeedFile(path)
	if err != nil {
		return err
	}

	created, err := store.Seed(ctx, seeds)
	if err != nil {
		return err
	}
	slog.Info("seed applied", "file", path, "entries", len(seeds), "created", created)
	return nil
}
