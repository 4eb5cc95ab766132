// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/reports"
)

// handleSendSMS is an operational hook for sending an ad-hoc SMS through the
// configured gateway. The transport result is passed through verbatim; its
// status field is the error channel.
func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To       []string `json:"to"`
		Message  string   `json:"message"`
		SenderID string   `json:"senderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.To) == 0 || req.Message == "" {
		httpError(w, http.StatusBadRequest, "to and message are required")
		return
	}

	res := s.sms.SendSMS(r.Context(), req.To, req.Message, req.SenderID)
	writeJSON(w, http.StatusOK, res)
}

// handleStatusUpdate moves a report through its lifecycle and notifies the
// reporter. Notification failure never rolls back the update.
func (s *Server) handleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !reports.ValidStatus(req.Status) {
		httpError(w, http.StatusBadRequest, "unknown status")
		return
	}

	updated, err := s.reports.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			httpError(w, http.StatusNotFound, "report not found")
			return
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).Str("report_id", id).Msg("status update failed")
		httpError(w, http.StatusInternalServerError, "update failed")
		return
	}

	s.notifier.StatusChanged(r.Context(), updated)
	writeJSON(w, http.StatusOK, updated)
}

// handleReward relays a reward-processing outcome to the reporter.
func (s *Server) handleReward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Amount string `json:"amount"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount == "" || req.Status == "" {
		httpError(w, http.StatusBadRequest, "amount and status are required")
		return
	}

	report, err := s.reports.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			httpError(w, http.StatusNotFound, "report not found")
			return
		}
		httpError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	s.notifier.RewardPaid(r.Context(), report, req.Amount, req.Status)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"error": detail})
}
