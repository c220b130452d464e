package server

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sociallift/pagereply/internal/webhook"
)

// handleWebhookVerify answers the platform's subscription handshake: echo
// the challenge when the verify token matches, 403 otherwise.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || token != s.verifyToken {
		writeError(w, http.StatusForbidden, "verification failed")
		return
	}
	if _, err := strconv.Atoi(challenge); err != nil {
		writeError(w, http.StatusForbidden, "verification failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleWebhook ingests a delivery. The sender disables endpoints that
// error or stall, so the response is always an immediate 200: per-event
// failures are logged and the rest of the batch continues, and reply
// dispatch happens on the scheduler, never on this request.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		s.log.Warn("failed to read webhook body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	payload, err := webhook.ParsePayload(body)
	if err != nil {
		s.log.Warn("failed to parse webhook payload", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	for _, ev := range webhook.Normalize(payload, time.Now()) {
		if err := s.pipeline.Ingest(r.Context(), ev); err != nil {
			s.log.Error("event ingestion failed",
				slog.String("kind", string(ev.Kind)),
				slog.String("page_id", ev.PageID),
				slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
