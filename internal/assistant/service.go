package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/jobs"
	"bakery-chat/internal/leads"
	"bakery-chat/internal/llm"
	"bakery-chat/internal/metrics"
	"bakery-chat/internal/repo"
	"bakery-chat/internal/store"
)

var (
	// ErrEmptyMessage is returned by Chat when the message text is blank.
	ErrEmptyMessage = apperr.Validation("message", "message is required")
	// ErrEmptyConversation is returned by Analyze for a conversation without messages.
	ErrEmptyConversation = apperr.Validation("conversation_id", "No messages found in conversation")
)

// ConversationStore is the subset of the Conversation Store the service needs.
type ConversationStore interface {
	CreateConversation(ctx context.Context) (*repo.Conversation, error)
	GetConversation(ctx context.Context, id string) (*repo.Conversation, error)
	GetConversationWithUserInfo(ctx context.Context, id string) (*store.ConversationWithUserInfo, error)
	AddMessage(ctx context.Context, id string, msg repo.Message) (*repo.Conversation, error)
	UpdateConversationStatus(ctx context.Context, id, status string) (*repo.Conversation, error)
	SaveUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error)
	UpdateUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error)
	GetUserInfo(ctx context.Context, id string) (*repo.UserInfo, error)
	Timestamp() string
}

// Options tunes model calls.
type Options struct {
	ChatMaxTokens    int
	AnalyzeMaxTokens int
	// HistoryWindow is how many stored messages are sent with each chat turn.
	HistoryWindow int
}

// Service runs chat turns and conversation analysis.
type Service struct {
	store   ConversationStore
	llm     llm.Completer
	jobs    jobs.Enqueuer
	logger  *slog.Logger
	metrics *metrics.Metrics
	opts    Options
	system  string
}

// New creates the assistant service.
func New(st ConversationStore, completer llm.Completer, queue jobs.Enqueuer, logger *slog.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.ChatMaxTokens <= 0 {
		opts.ChatMaxTokens = 800
	}
	if opts.AnalyzeMaxTokens <= 0 {
		opts.AnalyzeMaxTokens = 1000
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	return &Service{
		store:   st,
		llm:     completer,
		jobs:    queue,
		logger:  logger.With("component", "assistant"),
		metrics: m,
		opts:    opts,
		system:  SystemPrompt(),
	}
}

// ChatRequest is one user turn.
type ChatRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	UserInfo       *repo.UserInfo `json:"user_info,omitempty"`
}

// ChatResponse is the assistant's reply to a turn.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// Chat persists the user message, asks the model for a reply, persists the
// reply and schedules the follow-up analysis for the turn.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	id, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("conversation_id", id)

	var history []repo.Message
	if conv, err := s.store.GetConversation(ctx, id); err != nil {
		logger.Warn("could not load conversation history", "error", err)
	} else {
		history = conv.Content
	}

	if _, err := s.store.AddMessage(ctx, id, repo.Message{Role: repo.RoleUser, Content: req.Message}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	resp, err := s.llm.Complete(ctx, llm.Request{
		Purpose:     "chat",
		Messages:    s.chatMessages(history, req.Message),
		MaxTokens:   s.opts.ChatMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if _, err := s.store.AddMessage(ctx, id, repo.Message{Role: repo.RoleAssistant, Content: resp.Text}); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	total := len(history) + 2
	if err := s.jobs.Enqueue(ctx, jobs.Job{Kind: jobs.KindTurnCompleted, ConversationID: id, TotalMessages: total}); err != nil {
		logger.Warn("could not schedule turn follow-up", "total_messages", total, "error", err)
	}

	logger.Info("chat turn completed", "total_messages", total)
	return &ChatResponse{
		Response:       resp.Text,
		ConversationID: id,
		Timestamp:      s.store.Timestamp(),
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, req ChatRequest) (string, error) {
	if req.ConversationID != "" && store.IsValidUUID(req.ConversationID) {
		return req.ConversationID, nil
	}
	if req.ConversationID != "" {
		s.logger.Warn("invalid conversation id, starting a new conversation", "conversation_id", req.ConversationID)
	}

	conv, err := s.store.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	if req.UserInfo != nil {
		if _, err := s.store.SaveUserInfo(ctx, conv.ConversationID, *req.UserInfo); err != nil {
			return "", fmt.Errorf("save user info: %w", err)
		}
	}
	return conv.ConversationID, nil
}

func (s *Service) chatMessages(history []repo.Message, current string) []llm.Message {
	if len(history) > s.opts.HistoryWindow {
		history = history[len(history)-s.opts.HistoryWindow:]
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.system})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: current})
}

// AnalyzeResult is the parsed model analysis of a conversation.
type AnalyzeResult struct {
	ConversationID string
	// Analysis is the model's JSON object as returned.
	Analysis map[string]any
	// UserInfo is the lead record after the merge, nil when the model
	// returned no user_info.
	UserInfo *repo.UserInfo
}

// Analyze asks the model to extract contact details and grade the lead, then
// merges the result into the conversation's lead record.
func (s *Service) Analyze(ctx context.Context, conversationID string) (*AnalyzeResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, apperr.Validation("conversation_id", "conversation_id is required")
	}
	data, err := s.store.GetConversationWithUserInfo(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(data.Conversation.Content) == 0 {
		return nil, ErrEmptyConversation
	}
	logger := s.logger.With("conversation_id", conversationID)

	resp, err := s.llm.Complete(ctx, llm.Request{
		Purpose: "analyze",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: analysisSystemPrompt},
			{Role: llm.RoleUser, Content: AnalysisPrompt(data.Conversation.Content)},
		},
		MaxTokens:   s.opts.AnalyzeMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}

	var analysis map[string]any
	if err := json.Unmarshal([]byte(resp.Text), &analysis); err != nil {
		logger.Warn("analysis was not valid JSON", "error", err)
		return nil, &apperr.ParseError{Raw: resp.Text, Err: err}
	}
	if analysis == nil {
		return nil, &apperr.ParseError{Raw: resp.Text, Err: errors.New("analysis is not a JSON object")}
	}

	result := &AnalyzeResult{ConversationID: conversationID, Analysis: analysis}

	if extracted, ok := analysis["user_info"].(map[string]any); ok {
		merged := leads.Merge(store.ContactOf(data.UserInfo), contactFromMap(extracted))
		info := store.WithContact(repo.UserInfo{}, merged)
		if label, ok := analysis["lead_quality"]; ok && label != nil && label != "" {
			str, _ := label.(string)
			info.LeadQuality = leads.QualityScore(str)
		}

		var saved *repo.UserInfo
		if data.UserInfo != nil {
			saved, err = s.store.UpdateUserInfo(ctx, conversationID, info)
		} else {
			saved, err = s.store.SaveUserInfo(ctx, conversationID, info)
		}
		if err != nil {
			return nil, fmt.Errorf("save analysis: %w", err)
		}
		result.UserInfo = saved
	}

	if status, ok := analysis["conversation_status"].(string); ok && status != "" {
		if _, err := s.store.UpdateConversationStatus(ctx, conversationID, status); err != nil {
			logger.Warn("could not update conversation status", "status", status, "error", err)
		}
	}

	logger.Info("conversation analyzed", "lead_quality", analysis["lead_quality"])
	return result, nil
}

func contactFromMap(m map[string]any) leads.Fields {
	str := func(key string) string {
		v, _ := m[key].(string)
		return strings.TrimSpace(v)
	}
	return leads.Fields{
		Name:        str("name"),
		Email:       str("email"),
		PhoneNumber: str("phone_number"),
		Company:     str("company"),
		Position:    str("position"),
	}
}
