package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/repo"
)

// GET /conversation?id= returns one conversation with its lead record,
// without id every conversation.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		data, err := s.deps.Store.GetConversationWithUserInfo(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, "get conversation", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"conversation": data.Conversation,
			"user_info":    data.UserInfo,
		})
		return
	}

	convs, err := s.deps.Store.GetAllConversations(r.Context())
	if err != nil {
		s.writeStoreError(w, "list conversations", err)
		return
	}
	if convs == nil {
		convs = []repo.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": convs,
		"count":         len(convs),
	})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserInfo *repo.UserInfo `json:"user_info"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	conv, err := s.deps.Store.CreateConversation(r.Context())
	if err != nil {
		s.writeStoreError(w, "create conversation", err)
		return
	}
	if req.UserInfo != nil {
		if _, err := s.deps.Store.SaveUserInfo(r.Context(), conv.ConversationID, *req.UserInfo); err != nil {
			s.writeStoreError(w, "save user info", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"conversation": conv,
	})
}

func (s *Server) handleUpdateConversationUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string         `json:"conversation_id"`
		UserInfo       *repo.UserInfo `json:"user_info"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		writeError(w, http.StatusBadRequest, msgConversationRequired)
		return
	}
	if req.UserInfo == nil {
		writeError(w, http.StatusBadRequest, msgUserInfoRequired)
		return
	}

	info, err := s.deps.Store.SaveOrUpdateUserInfo(r.Context(), req.ConversationID, *req.UserInfo)
	if err != nil {
		s.writeStoreError(w, "update user info", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"user_info": info,
	})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	id := req.ConversationID
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, msgConversationRequired)
		return
	}

	if err := s.deps.Store.DeleteConversation(r.Context(), id); err != nil {
		s.writeStoreError(w, "delete conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msgConversationDeleted,
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("conversation_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, msgConversationRequired)
		return
	}

	info, err := s.deps.Store.GetUserInfo(r.Context(), id)
	var verr *apperr.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"user_info":       info,
			"conversation_id": id,
		})
	case apperr.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   msgUserInfoNotFound,
			"message": msgUserInfoNotFoundLong,
		})
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	default:
		s.logger.Error("get user info failed", "conversation_id", id, "error", err)
		s.metrics.Error("http")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   msgUserInfoFailed,
			"details": err.Error(),
		})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Store.GetStatistics(r.Context())
	if err != nil {
		s.writeStoreError(w, "statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"statistics": stats,
	})
}

// writeStoreError answers a failed store call on the CRUD endpoints.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case apperr.IsNotFound(err):
		var nf *apperr.NotFoundError
		errors.As(err, &nf)
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   notFoundMessage(nf.Resource),
		})
	default:
		s.logger.Error(op+" failed", "error", err)
		s.metrics.Error("http")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   msgInternal,
			"details": err.Error(),
		})
	}
}

func notFoundMessage(resource string) string {
	switch resource {
	case "order":
		return msgOrderNotFound
	case "user info":
		return msgUserInfoNotFound
	default:
		return msgConversationNotFound
	}
}
