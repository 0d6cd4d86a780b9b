package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rankcli/internal/config"
	"rankcli/internal/exporter"
	"rankcli/internal/extractor"
	"rankcli/internal/infrastructure"
	customMiddleware "rankcli/internal/middleware"
	"rankcli/internal/session"
	handlers "rankcli/internal/transport/http"
	"rankcli/internal/validation"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// cleanupInterval is how often the export directory is swept.
const cleanupInterval = 10 * time.Minute

// Application wires the ranking service together.
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Sessions *session.Store
	Exports  *exporter.Store
	Logger   *slog.Logger
}

// NewApplication creates an application instance with all dependencies
// constructed from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	app := &Application{
		Config:   cfg,
		Sessions: session.NewStore(),
		Exports:  exporter.NewStore(cfg.Paths.ExportsDir, cfg.Paths.ExportMaxAge, logger),
		Logger:   logger,
	}
	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.RateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst))
	}
	if a.Config.Security.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	sessionHandler := handlers.NewSessionHandler(
		a.Sessions,
		a.Exports,
		extractor.NewPDFTextExtractor(a.Logger),
		validation.NewFileValidator(a.Logger, a.Config.Limits.MaxUploadBytes()),
		a.Logger,
		a.Config.Limits.MaxUploadBytes(),
	)
	healthHandler := handlers.NewHealthHandler(Version)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/sessions", sessionHandler.Routes())
		r.Get("/exports/{filename}", sessionHandler.DownloadExport)
	})
	r.Get("/healthz", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP server and blocks until shutdown. A background
// sweep keeps the export directory from accumulating stale files.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sweepExports(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return infrastructure.CloseLogFile()
}

// sweepExports periodically removes stale export files.
func (a *Application) sweepExports(ctx context.Context) {
	a.Exports.CleanupOld()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Exports.CleanupOld()
		}
	}
}
