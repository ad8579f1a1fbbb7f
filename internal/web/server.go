package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds server configuration and dependencies.
type ServerConfig struct {
	Addr           string
	Handlers       *Handlers
	MetricsHandler http.Handler
	StatusRecorder func(http.Handler) http.Handler
	RateLimiter    *IPRateLimiter
	StaticFS       fs.FS
	Logger         *log.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router  chi.Router
	server  *http.Server
	limiter *IPRateLimiter
	logger  *log.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Handlers == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	router := chi.NewRouter()

	s := &Server{
		router:  router,
		limiter: cfg.RateLimiter,
		logger:  cfg.Logger,
	}

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	if cfg.StatusRecorder != nil {
		router.Use(cfg.StatusRecorder)
	}

	// Static files
	if cfg.StaticFS != nil {
		fileServer := http.FileServer(http.FS(cfg.StaticFS))
		router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	h := cfg.Handlers

	// Pages
	router.Get("/", h.Home)
	router.Get("/dashboard", h.Dashboard)
	router.Get("/raw", h.RawData)

	// Auth routes
	router.Get("/callback", h.Callback)
	router.Post("/auth/logout", h.Logout)

	// Throttled routes: login and extraction both reach out to Spotify.
	if cfg.RateLimiter != nil {
		router.Group(func(r chi.Router) {
			r.Use(cfg.RateLimiter.Limit)
			r.Get("/auth/login", h.Login)
			r.Post("/extract", h.Extract)
		})
	} else {
		router.Get("/auth/login", h.Login)
		router.Post("/extract", h.Extract)
	}

	// Operational endpoints
	router.Get("/healthz", h.Healthz)
	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler)
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // dashboard waits out the processed poll
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
