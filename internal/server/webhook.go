package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nextlevelbuilder/turngate/internal/channels/whatsapp"
)

// maxBodyBytes bounds webhook request bodies. Cloud API text payloads are
// a few KB; anything larger is hostile.
const maxBodyBytes = 1 << 20

// handleVerify implements the Cloud API subscription handshake:
// echo hub.challenge iff hub.mode is "subscribe" and the token matches.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "" || token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "missing parameters"})
		return
	}
	if mode != "subscribe" || token != s.cfg.VerifyToken {
		slog.Info("webhook verification failed", "mode", mode)
		writeJSON(w, http.StatusForbidden, map[string]string{"status": "error", "message": "verification failed"})
		return
	}

	slog.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleWebhook ingests one provider delivery. Status callbacks and
// non-message events are acked without touching the engine. A transient
// store failure returns 500 so the provider redelivers; the dedup guard
// makes that redelivery safe.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "unreadable body"})
		return
	}

	if !whatsapp.ValidateSignature(body, r.Header.Get("X-Hub-Signature-256"), s.appSecret) {
		slog.Info("webhook signature verification failed")
		writeJSON(w, http.StatusForbidden, map[string]string{"status": "error", "message": "invalid signature"})
		return
	}

	msg, err := whatsapp.ParseInbound(body)
	switch {
	case errors.Is(err, whatsapp.ErrStatusUpdate):
		slog.Debug("received status update")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	case errors.Is(err, whatsapp.ErrNotWhatsApp):
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "not a whatsapp api event"})
		return
	case err != nil:
		slog.Warn("webhook payload rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid payload"})
		return
	}

	if !s.limiter.Allow(msg.UserID) {
		slog.Warn("sender rate limited", "user_id", msg.UserID)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"status": "error", "message": "rate limited"})
		return
	}

	slog.Info("message received", "user_id", msg.UserID, "message_id", msg.ProviderMessageID)

	if err := s.ingress.Enqueue(r.Context(), msg); err != nil {
		slog.Error("ingest failed", "user_id", msg.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "ingest failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
