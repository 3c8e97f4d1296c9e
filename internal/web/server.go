package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/database"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
	"github.com/kozaktomas/face-console/internal/web/middleware"
)

// apiTimeout bounds non-streaming API requests.
const apiTimeout = 2 * time.Minute

// Services are the console components the server exposes.
type Services struct {
	Appliance  *appliance.Appliance
	Poller     *poller.Poller
	Trigger    *recognition.Trigger
	Directory  *directory.Directory
	Enrollment *enrollment.Session
	Journal    database.RecognitionReader
}

// Server represents the web server
type Server struct {
	config     *config.Config
	services   Services
	logger     *slog.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, services Services, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		services: services,
		logger:   logger,
		router:   r,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	// Event streams end when shutdown begins instead of holding it open.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: apiTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	s.httpServer.RegisterOnShutdown(cancelBase)

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
