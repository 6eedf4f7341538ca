// Package server exposes the local dashboard API: a JSON view of the daemon's
// session, offers, and notifications, plus a WebSocket feed of live events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkravets/binderbot/internal/server/handler"
	"github.com/mkravets/binderbot/internal/server/middleware"
	"github.com/mkravets/binderbot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Session       *handler.SessionHandler
	Offers        *handler.OfferHandler
	Notifications *handler.NotificationHandler
}

// Server is the local HTTP + WebSocket API for the dashboard.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/status", handlers.Session.GetStatus)
	mux.HandleFunc("GET /api/session", handlers.Session.GetSession)

	mux.HandleFunc("GET /api/offers", handlers.Offers.ListOffers)
	mux.HandleFunc("GET /api/offers/archive", handlers.Offers.ListArchived)
	mux.HandleFunc("GET /api/offers/{id}", handlers.Offers.GetOffer)
	mux.HandleFunc("POST /api/offers/{id}/accept", handlers.Offers.AcceptOffer)
	mux.HandleFunc("POST /api/offers/{id}/decline", handlers.Offers.DeclineOffer)
	mux.HandleFunc("POST /api/offers/{id}/cancel", handlers.Offers.CancelOffer)

	mux.HandleFunc("GET /api/notifications", handlers.Notifications.ListNotifications)
	mux.HandleFunc("POST /api/notifications/read-all", handlers.Notifications.MarkAllRead)
	mux.HandleFunc("POST /api/notifications/{id}/read", handlers.Notifications.MarkRead)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
