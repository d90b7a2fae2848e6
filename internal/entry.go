// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/fieldaudit/internal/api"
	"github.com/starford/fieldaudit/internal/assets"
	"github.com/starford/fieldaudit/internal/auditservice"
	"github.com/starford/fieldaudit/internal/report"
	"github.com/starford/fieldaudit/internal/sse"
	"github.com/starford/fieldaudit/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

// runtime is the wired object graph shared by every command.
type runtime struct {
	logger  *slog.Logger
	store   *storage.Store
	assets  *assets.Cache
	service *auditservice.Service
	broker  *sse.Broker
}

// build wires storage, the asset cache, the renderer and the service. The
// SSE broker is created only when withEvents is set.
func (a *application) build(ctx context.Context, logger *slog.Logger, withEvents bool) (*runtime, error) {
	cfg := a.config
	rt := &runtime{logger: logger}

	secondary, err := openFallback(ctx, cfg.Storage.Fallback)
	if err != nil {
		return nil, fmt.Errorf("init fallback storage: %w", err)
	}
	var open storage.Opener
	if cfg.Storage.SQLite.Enabled() {
		open = storage.SQLiteOpener(cfg.Storage.SQLite.Path)
	}
	rt.store = storage.NewStore(cfg.Storage.Key, open, secondary, storage.WithLogger(logger))

	if withEvents {
		heartbeat := a.heartbeat
		if heartbeat == 0 {
			heartbeat = 25 * time.Second
		}
		rt.broker = sse.NewBroker(heartbeat)
	}

	rt.assets, err = assets.New(assets.Options{
		Dir:          cfg.Assets.Dir,
		CacheName:    cfg.Assets.CacheName,
		Files:        cfg.Assets.Files,
		AllowedHosts: cfg.Assets.AllowedHosts,
		Logger:       logger,
		OnUpdate: func(u assets.Update) {
			logger.Info("Assets updated", slog.String("previous", u.Previous), slog.String("current", u.Current))
			if rt.broker != nil {
				rt.broker.Publish(sse.Event{Type: sse.TypeAssetsUpdated, Data: u})
			}
		},
	})
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("init assets: %w", err)
	}

	reportOpts := report.Options{
		Title:        cfg.Report.Title,
		FilePrefix:   cfg.Report.FilePrefix,
		HeaderImages: cfg.Report.HeaderImages,
		Images:       rt.assets,
		Logger:       logger,
	}
	if a.clock != nil {
		reportOpts.Now = a.clock.Now
	}
	renderer := report.New(reportOpts)

	svcOpts := []auditservice.Option{
		auditservice.WithLogger(logger),
		auditservice.WithQuietPeriod(cfg.Autosave.QuietPeriod),
		auditservice.WithStatusSettle(cfg.Autosave.StatusSettle),
	}
	if a.clock != nil {
		svcOpts = append(svcOpts, auditservice.WithClock(a.clock))
	}
	if rt.broker != nil {
		svcOpts = append(svcOpts, auditservice.WithPublisher(rt.broker))
	}
	rt.service = auditservice.New(rt.store, renderer, svcOpts...)

	if rt.service.Restore(ctx) {
		logger.Info("Saved form resumed", slog.String("key", cfg.Storage.Key))
	}
	return rt, nil
}

func openFallback(ctx context.Context, cfg FallbackConfig) (storage.StringBackend, error) {
	switch cfg.Driver {
	case FallbackRedis:
		return storage.NewRedis(ctx, cfg.RedisURL)
	case FallbackNone:
		return nil, nil
	default:
		return storage.NewFS(cfg.Path, cfg.MaxBytes)
	}
}

// close flushes a pending save, then releases the store and the broker.
func (rt *runtime) close(ctx context.Context) {
	if rt.service != nil {
		if err := rt.service.Close(ctx); err != nil {
			rt.logger.Warn("Final save failed", slog.String("error", err.Error()))
		}
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("Store close failed", slog.String("error", err.Error()))
	}
	if rt.broker != nil {
		rt.broker.Close()
	}
}

// handler builds the root router: health checks, the REST API, the event
// stream and the offline assets.
func (rt *runtime) handler(cfg *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","assets":%q}`, rt.assets.Version())
	})

	var events http.Handler
	if rt.broker != nil {
		events = rt.broker
	}
	r.Mount("/api", api.NewRouter(rt.service, cfg.Auth.EffectiveToken(), events))
	r.Handle("/assets/*", http.StripPrefix("/assets/", rt.assets))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.Storage.SQLite.Path),
		slog.String("fallback", cfg.Storage.Fallback.Driver),
		slog.String("assets_dir", cfg.Assets.Dir),
		slog.Bool("auth", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := app.build(ctx, logger, true)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           rt.handler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the asset cache when its directory changes.
	g.Go(func() error {
		if err := rt.assets.Watch(gCtx); err != nil {
			logger.Warn("Asset watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Close the event stream first so open SSE connections do not hold
		// Shutdown until its deadline.
		rt.broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	err = g.Wait()
	rt.close(context.Background())
	if err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
