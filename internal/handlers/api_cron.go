package handlers

import (
	"context"
	"net/http"

	"github.com/DhruvGupta005/uptime/internal/api"
)

// handleCron runs one scheduler tick and returns its tally. The tick runs to
// completion even if the caller disconnects.
func (h *APIHandler) handleCron(w http.ResponseWriter, r *http.Request) {
	tally := h.ticker.RunOnce(context.WithoutCancel(r.Context()))
	api.RespondJSON(w, http.StatusOK, api.CronResponse(tally))
}

// handleEvents streams engine events for the caller's monitors
func (h *APIHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	h.events.HandleConnect(w, r, userID(r))
}
