package handlers

import (
	"net/http"

	"github.com/DhruvGupta005/uptime/internal/api"
	"github.com/DhruvGupta005/uptime/internal/jobs"
)

// StatusReporter exposes the scheduler state for the health check
type StatusReporter interface {
	Status() jobs.Status
}

// ClientCounter reports connected event subscribers
type ClientCounter interface {
	ClientCount() int
}

// HTTPHandler handles unauthenticated endpoints
type HTTPHandler struct {
	scheduler StatusReporter
	clients   ClientCounter
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(scheduler StatusReporter, clients ClientCounter) *HTTPHandler {
	return &HTTPHandler{
		scheduler: scheduler,
		clients:   clients,
	}
}

// handleHealth reports liveness and the scheduler state
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok"}
	if h.scheduler != nil {
		resp.Scheduler = h.scheduler.Status()
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}
	api.RespondJSON(w, http.StatusOK, resp)
}
