package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/assistant"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req assistant.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgEmptyMessage)
		return
	}

	// The turn completes even if the widget goes away mid-request.
	ctx := context.WithoutCancel(r.Context())
	resp, err := s.deps.Assistant.Chat(ctx, req)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, msgEmptyMessage)
			return
		}
		s.logger.Error("chat failed", "conversation_id", req.ConversationID, "error", err)
		s.metrics.Error("chat")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   modelErrorMessage(err, msgChatFailed),
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		writeError(w, http.StatusBadRequest, msgConversationRequired)
		return
	}

	result, err := s.deps.Assistant.Analyze(r.Context(), req.ConversationID)
	if err != nil {
		s.writeAnalyzeError(w, req.ConversationID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"analysis":        result.Analysis,
		"conversation_id": result.ConversationID,
	})
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, id string, err error) {
	var (
		verr *apperr.ValidationError
		perr *apperr.ParseError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, msgConversationNotFound)
	case errors.As(err, &perr):
		s.logger.Error("analysis result unparsable", "conversation_id", id, "error", err)
		s.metrics.Error("analyze")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      msgParseFailed,
			"raw_result": perr.Raw,
		})
	default:
		s.logger.Error("analysis failed", "conversation_id", id, "error", err)
		s.metrics.Error("analyze")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   modelErrorMessage(err, msgAnalyzeFailed),
			"details": err.Error(),
		})
	}
}
