package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/api"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/middleware"
	"github.com/DhruvGupta005/uptime/internal/services"
)

func userID(r *http.Request) string {
	return middleware.GetUserFromContext(r.Context())
}

// ownedMonitor loads the {id} monitor of the caller, writing the error
// response itself when it returns nil
func (h *APIHandler) ownedMonitor(w http.ResponseWriter, r *http.Request) *database.Monitor {
	id := chi.URLParam(r, "id")
	m, err := h.monitors.GetOwnedMonitor(r.Context(), id, userID(r))
	if errors.Is(err, database.ErrNotFound) {
		api.RespondError(w, http.StatusNotFound, "Monitor not found")
		return nil
	}
	if err != nil {
		log.Printf("API: Failed to load monitor %s: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load monitor")
		return nil
	}
	return m
}

// handleRunCheck handles POST /api/monitors/{id}/run
func (h *APIHandler) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMonitor(w, r)
	if m == nil {
		return
	}

	check, err := h.monitors.RunCheckForMonitor(r.Context(), m.ID)
	if err != nil {
		log.Printf("API: Run check for monitor %s failed: %v", m.ID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to run check")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.RunCheckResponse{OK: true, Check: check})
}

// handleTestAlert handles POST /api/monitors/{id}/test-alert
func (h *APIHandler) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMonitor(w, r)
	if m == nil {
		return
	}

	var req api.TestAlertRequest
	if err := api.DecodeOptionalJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	kind := database.AlertType(req.AlertType)
	if kind == "" {
		kind = database.AlertTypeDown
	}

	var endpoint *alerts.Endpoint
	if req.WebhookURL != "" {
		channel := alerts.KindSlack
		if req.Channel != "" {
			channel = alerts.EndpointKind(req.Channel)
		}
		endpoint = &alerts.Endpoint{Kind: channel, URL: req.WebhookURL}
	}

	outcomes, err := h.monitors.SendTestAlert(r.Context(), m, kind, endpoint)
	if errors.Is(err, services.ErrNoEndpoint) {
		api.RespondError(w, http.StatusBadRequest, "Webhook URL is required")
		return
	}
	if err != nil {
		log.Printf("API: Test alert for monitor %s failed: %v", m.ID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to send notification")
		return
	}

	resp := api.TestAlertResponse{Results: api.OutcomesToResults(outcomes)}
	if !api.AllDelivered(outcomes) {
		resp.Error = "Failed to send notification"
		api.RespondJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Success = true
	resp.Message = "Test notification sent successfully"
	api.RespondJSON(w, http.StatusOK, resp)
}

// handleListAlerts handles GET /api/monitors/{id}/alerts
func (h *APIHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMonitor(w, r)
	if m == nil {
		return
	}

	p := api.ParsePagination(r)
	rows, total, err := h.monitors.ListAlerts(r.Context(), m.ID, p.Offset(), p.PageSize)
	if err != nil {
		log.Printf("API: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get alerts")
		return
	}
	api.RespondPage(w, p, api.AlertsToListItems(rows), total)
}

// handleListChecks handles GET /api/monitors/{id}/checks
func (h *APIHandler) handleListChecks(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMonitor(w, r)
	if m == nil {
		return
	}

	p := api.ParsePagination(r)
	checks, total, err := h.monitors.ListChecks(r.Context(), m.ID, p.Offset(), p.PageSize)
	if err != nil {
		log.Printf("API: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get checks")
		return
	}
	api.RespondPage(w, p, checks, total)
}

// handleListIncidents handles GET /api/monitors/{id}/incidents
func (h *APIHandler) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMonitor(w, r)
	if m == nil {
		return
	}

	p := api.ParsePagination(r)
	incidents, total, err := h.monitors.ListIncidents(r.Context(), m.ID, p.Offset(), p.PageSize)
	if err != nil {
		log.Printf("API: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get incidents")
		return
	}
	api.RespondPage(w, p, incidents, total)
}
