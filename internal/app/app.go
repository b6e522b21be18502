package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"opsdash/internal/config"
	"opsdash/internal/dataprocessing"
	apierrors "opsdash/internal/errors"
	"opsdash/internal/infrastructure"
	customMiddleware "opsdash/internal/middleware"
	"opsdash/internal/services"
	"opsdash/internal/session"
	handlers "opsdash/internal/transport/http"
)

// AppName is the human readable product name
const AppName = "Operations Dashboard"

var (
	// VERSION is overridden at link time
	VERSION = config.AppVersion
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	ErrorHandler     *apierrors.ErrorHandler
	Sessions         *session.MemoryStore
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
	stopOnce  sync.Once
}

// NewApplication loads the configuration and logger and wires the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplicationWithConfig(cfg, logger)
}

// NewApplicationWithConfig wires the application from an already loaded
// configuration
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		sweepStop:     make(chan struct{}),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// SampleConfig converts the sample section of cfg for the generator
func SampleConfig(cfg config.SampleConfig) (dataprocessing.SampleConfig, error) {
	epoch, err := cfg.EpochTime()
	if err != nil {
		return dataprocessing.SampleConfig{}, fmt.Errorf("invalid sample epoch %q: %w", cfg.Epoch, err)
	}
	return dataprocessing.SampleConfig{
		Seed:        cfg.Seed,
		Epoch:       epoch,
		Days:        cfg.Days,
		Departments: append([]string(nil), cfg.Departments...),
	}, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	sample, err := SampleConfig(a.Config.Sample)
	if err != nil {
		return err
	}

	a.Sessions = session.NewMemoryStore(a.Config.Session.IdleTTL)

	a.DashboardService = services.NewDashboardService(a.Sessions, services.DashboardOptions{
		Sample:         sample,
		FilenamePrefix: a.Config.Export.FilenamePrefix,
		Tracer:         a.OTelProviders.Tracer,
		Metrics:        a.Metrics,
	}, a.Logger)

	a.HealthService = services.NewHealthServiceWithBuildInfo(VERSION, BuildTime, BuildID, a.Sessions, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, 0)
	cookies := handlers.SessionCookies{
		Name:   a.Config.Session.CookieName,
		TTL:    a.Config.Session.IdleTTL,
		Secure: a.Config.Session.SecureCookie,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		handlers.NewHealthHandler(a.HealthService, a.Logger).RegisterRoutes(r)

		handlers.NewDashboardHandler(
			a.DashboardService,
			cookies,
			validation,
			a.Config.Upload.MaxBytes,
			a.Logger,
			a.ErrorHandler,
		).RegisterRoutes(r)
	})
}

// getCORSConfig returns the CORS configuration for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	a.Logger.Info("CORS configured",
		slog.Any("allowed_origins", cfg.AllowedOrigins))

	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// sweepInterval is how often idle sessions are evicted
func (a *Application) sweepInterval() time.Duration {
	interval := a.Config.Session.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// startSessionSweeper evicts idle sessions until Stop is called
func (a *Application) startSessionSweeper(ctx context.Context) {
	interval := a.sweepInterval()
	a.sweepWG.Add(1)
	go func() {
		defer a.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.DashboardService.SweepSessions(ctx)
			case <-a.sweepStop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Start starts the application. A listener failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, cancel, ln)
}

// Serve runs the server on ln. It returns once the server goroutine is up.
func (a *Application) Serve(ctx context.Context, cancel context.CancelFunc, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	a.startSessionSweeper(ctx)

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	var stopErr error
	a.stopOnce.Do(func() {
		a.Logger.InfoContext(ctx, "Shutting down application")

		shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			stopErr = fmt.Errorf("server shutdown error: %w", err)
		}

		close(a.sweepStop)
		a.sweepWG.Wait()

		if a.OTelProviders != nil {
			if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
				a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			}
		}

		a.Logger.InfoContext(ctx, "Application shutdown complete")
	})
	return stopErr
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
