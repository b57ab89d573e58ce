package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/middleware"
	"github.com/DhruvGupta005/uptime/internal/services"
)

// MonitorService is the part of the check pipeline the API drives
type MonitorService interface {
	GetOwnedMonitor(ctx context.Context, id, userID string) (*database.Monitor, error)
	RunCheckForMonitor(ctx context.Context, id string) (*database.Check, error)
	SendTestAlert(ctx context.Context, m *database.Monitor, kind database.AlertType, endpoint *alerts.Endpoint) ([]alerts.Outcome, error)
	ListAlerts(ctx context.Context, monitorID string, offset, limit int) ([]database.Alert, int64, error)
	ListChecks(ctx context.Context, monitorID string, offset, limit int) ([]database.Check, int64, error)
	ListIncidents(ctx context.Context, monitorID string, offset, limit int) ([]database.Incident, int64, error)
}

// Ticker runs one scheduler tick on demand
type Ticker interface {
	RunOnce(ctx context.Context) services.Tally
}

// EventStream subscribes websocket clients to engine events
type EventStream interface {
	HandleConnect(w http.ResponseWriter, r *http.Request, userID string)
}

// APIHandler handles the trigger API
type APIHandler struct {
	monitors MonitorService
	ticker   Ticker
	events   EventStream
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(monitors MonitorService, ticker Ticker, events EventStream) *APIHandler {
	return &APIHandler{
		monitors: monitors,
		ticker:   ticker,
		events:   events,
	}
}

// RouterConfig carries the handlers and guards of the HTTP surface
type RouterConfig struct {
	HTTP           *HTTPHandler
	API            *APIHandler
	JWT            *middleware.JWTAuth
	Cron           *middleware.CronAuth
	AllowedOrigins []string
}

// NewRouter builds the chi router serving every endpoint
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", cfg.HTTP.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.Cron.Wrap)
			r.Get("/cron", cfg.API.handleCron)
			r.Post("/cron", cfg.API.handleCron)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.JWT.Wrap)
			r.Get("/events", cfg.API.handleEvents)
			r.Route("/monitors/{id}", func(r chi.Router) {
				r.Post("/run", cfg.API.handleRunCheck)
				r.Post("/test-alert", cfg.API.handleTestAlert)
				r.Get("/alerts", cfg.API.handleListAlerts)
				r.Get("/checks", cfg.API.handleListChecks)
				r.Get("/incidents", cfg.API.handleListIncidents)
			})
		})
	})

	return r
}
