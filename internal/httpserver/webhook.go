package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bakery-chat/internal/relay"
)

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationData json.RawMessage `json:"conversation_data"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if isAbsent(req.ConversationData) {
		writeError(w, http.StatusBadRequest, msgDataRequired)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	result, err := s.deps.Relay.Forward(ctx, req.ConversationData)
	if err != nil {
		var rerr *relay.Error
		if !errors.As(err, &rerr) {
			rerr = &relay.Error{Kind: relay.KindUnexpected, Status: http.StatusInternalServerError, Err: err}
		}
		body := map[string]any{
			"error":        webhookErrorMessage(rerr),
			"details":      rerr.Error(),
			"webhook_data": rerr.UpstreamBody,
		}
		if rerr.UpstreamStatus != 0 {
			body["status"] = rerr.UpstreamStatus
		}
		writeJSON(w, rerr.Status, body)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// isAbsent treats a missing field and the falsy JSON scalars as no data.
func isAbsent(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("debug endpoint called", "method", r.Method, "url", r.URL.String())
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Debug API working!",
		"method":    r.Method,
		"url":       r.URL.RequestURI(),
		"timestamp": s.deps.Store.Timestamp(),
		"env":       s.deps.Env,
	})
}
