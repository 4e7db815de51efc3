// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/fractalizend/screener/internal/api/handler/api"
	"github.com/fractalizend/screener/internal/api/middleware"
	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server of the screener
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	APIKey string
}

// Dependencies are the services the routes are bound to.
type Dependencies struct {
	Ingest    handler.Ingester
	Admin     handler.Clearer
	Seeder    handler.Seeder
	Pairs     handler.PairStore
	Grid      handler.Grid
	Live      http.Handler
	Bookmarks handler.BookmarkStore
	Calendar  handler.CalendarStore
	Panels    handler.PanelSource
	Metrics   *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Ingest == nil || deps.Pairs == nil || deps.Grid == nil {
		return nil, fmt.Errorf("server requires ingest, pair and screener services")
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	// No WriteTimeout: it would cut websocket streams.
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	postOnly := middleware.AllowMethods(http.MethodPost)

	webhook := handler.NewWebhookHandler(deps.Ingest)
	s.mux.Handle("/api/webhook", postOnly(http.HandlerFunc(webhook.Handle)))

	if deps.Admin != nil || deps.Seeder != nil {
		admin := handler.NewAdminHandler(deps.Admin, deps.Seeder)
		if deps.Admin != nil {
			s.mux.Handle("/api/delete-alerts", postOnly(auth(http.HandlerFunc(admin.DeleteAlerts))))
		}
		if deps.Seeder != nil {
			s.mux.Handle("/api/mock-data", postOnly(auth(http.HandlerFunc(admin.MockData))))
		}
	}

	pairs := handler.NewPairsHandler(deps.Pairs)
	s.mux.HandleFunc("GET /api/pairs", pairs.List)
	s.mux.HandleFunc("GET /api/pairs/{id}", pairs.Get)
	s.mux.HandleFunc("POST /api/pairs/{id}/tags", pairs.AddTag)
	s.mux.HandleFunc("DELETE /api/pairs/{id}/tags/{tag}", pairs.RemoveTag)

	grid := handler.NewScreenerHandler(deps.Grid)
	s.mux.HandleFunc("GET /api/screener", grid.Get)
	if deps.Live != nil {
		s.mux.Handle("GET /api/screener/ws", deps.Live)
	}

	if deps.Bookmarks != nil {
		bookmarks := handler.NewBookmarkHandler(deps.Bookmarks)
		s.mux.HandleFunc("GET /api/bookmarks/{user}", bookmarks.Get)
		s.mux.HandleFunc("POST /api/bookmarks/{user}/toggle", bookmarks.Toggle)
	}

	if deps.Calendar != nil && deps.Panels != nil {
		cal := handler.NewCalendarHandler(deps.Calendar, deps.Panels)
		s.mux.HandleFunc("GET /api/calendar", cal.List)
		s.mux.HandleFunc("POST /api/calendar", cal.Create)
		s.mux.HandleFunc("GET /api/calendar/panels", cal.Panels)
		s.mux.HandleFunc("PUT /api/calendar/{id}", cal.Update)
		s.mux.HandleFunc("DELETE /api/calendar/{id}", cal.Delete)
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
