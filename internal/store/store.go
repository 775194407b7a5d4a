package store

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/leads"
	"bakery-chat/internal/repo"
)

// TimestampLayout is the ISO-8601 form used for message and response timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var uuidRegex = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Options tunes a Store.
type Options struct {
	// QueryTimeout bounds every repository call. Zero disables the bound.
	QueryTimeout time.Duration
	// Location decides what "today" means in statistics. Defaults to UTC.
	Location *time.Location
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Store is the Conversation Store. It validates identifiers, stamps
// timestamps and classifies repository failures for the layers above.
//
// AddMessage is a read-modify-write of the whole content array. Two
// concurrent appends to the same conversation can lose one of the messages.
type Store struct {
	repo    repo.Repository
	logger  *slog.Logger
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
}

// New builds a Store over the given repository.
func New(r repo.Repository, logger *slog.Logger, opts Options) *Store {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		repo:    r,
		logger:  logger.With("component", "store"),
		timeout: opts.QueryTimeout,
		loc:     loc,
		now:     now,
	}
}

// Now returns the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Timestamp formats the current time with TimestampLayout in UTC.
func (s *Store) Timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// IsValidUUID reports whether id looks like a version 1-5 UUID.
func IsValidUUID(id string) bool {
	return id != "" && uuidRegex.MatchString(id)
}

// ValidateConversationID returns id unchanged when it is a valid UUID.
func ValidateConversationID(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", apperr.Validation("conversation_id", "conversation_id is required")
	}
	if !IsValidUUID(id) {
		return "", &apperr.ValidationError{
			Field:   "conversation_id",
			Value:   id,
			Message: "invalid conversation ID format, expected UUID",
		}
	}
	return id, nil
}

func (s *Store) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func classify(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(resource, id)
	}
	return apperr.Storage(op, err)
}

// -- Conversations --

// CreateConversation inserts an empty conversation with a fresh id.
func (s *Store) CreateConversation(ctx context.Context) (*repo.Conversation, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	conv, err := s.repo.InsertConversation(ctx, repo.Conversation{
		ConversationID: uuid.NewString(),
		Content:        []repo.Message{},
	})
	if err != nil {
		return nil, classify("create conversation", "conversation", "", err)
	}
	s.logger.Debug("conversation created", "conversation_id", conv.ConversationID)
	return conv, nil
}

// GetConversation loads a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*repo.Conversation, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, classify("get conversation", "conversation", id, err)
	}
	return conv, nil
}

// ConversationWithUserInfo pairs a conversation with its lead record, if any.
type ConversationWithUserInfo struct {
	Conversation *repo.Conversation `json:"conversation"`
	UserInfo     *repo.UserInfo     `json:"user_info"`
}

// GetConversationWithUserInfo loads a conversation and its lead record. A
// missing lead record yields a nil UserInfo.
func (s *Store) GetConversationWithUserInfo(ctx context.Context, id string) (*ConversationWithUserInfo, error) {
	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := s.GetUserInfo(ctx, id)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	return &ConversationWithUserInfo{Conversation: conv, UserInfo: info}, nil
}

// GetAllConversations lists every conversation, newest first.
func (s *Store) GetAllConversations(ctx context.Context) ([]repo.Conversation, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	convs, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, classify("list conversations", "conversation", "", err)
	}
	return convs, nil
}

// AddMessage appends msg to the conversation content, stamping the current
// time when msg.Timestamp is empty.
func (s *Store) AddMessage(ctx context.Context, id string, msg repo.Message) (*repo.Conversation, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	if msg.Timestamp == "" {
		msg.Timestamp = s.Timestamp()
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	current, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, classify("add message", "conversation", id, err)
	}
	content := make([]repo.Message, 0, len(current.Content)+1)
	content = append(content, current.Content...)
	content = append(content, msg)

	updated, err := s.repo.UpdateConversationContent(ctx, id, content)
	if err != nil {
		return nil, classify("add message", "conversation", id, err)
	}
	return updated, nil
}

// UpdateConversationStatus sets one of active, completed or abandoned.
func (s *Store) UpdateConversationStatus(ctx context.Context, id, status string) (*repo.Conversation, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	switch status {
	case repo.StatusActive, repo.StatusCompleted, repo.StatusAbandoned:
	default:
		return nil, &apperr.ValidationError{Field: "status", Value: status, Message: "invalid conversation status"}
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	conv, err := s.repo.UpdateConversationStatus(ctx, id, status)
	if err != nil {
		return nil, classify("update conversation status", "conversation", id, err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation and, by cascade, its lead records.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if _, err := ValidateConversationID(id); err != nil {
		return err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.repo.DeleteConversation(ctx, id); err != nil {
		return classify("delete conversation", "conversation", id, err)
	}
	s.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// -- Lead records --

// SaveUserInfo inserts a lead record for the conversation. A lead quality
// outside {1,3,5} is stored as 3.
func (s *Store) SaveUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	info.ConversationID = id
	info.LeadQuality = leads.NormalizeQuality(info.LeadQuality)

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	saved, err := s.repo.InsertUserInfo(ctx, info)
	if err != nil {
		return nil, classify("save user info", "user info", id, err)
	}
	return saved, nil
}

// UpdateUserInfo overwrites the non-empty fields of the conversation's lead
// record. A zero lead quality keeps the stored score.
func (s *Store) UpdateUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	info.ConversationID = id
	if info.LeadQuality != 0 {
		info.LeadQuality = leads.NormalizeQuality(info.LeadQuality)
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	updated, err := s.repo.UpdateUserInfo(ctx, info)
	if err != nil {
		return nil, classify("update user info", "user info", id, err)
	}
	return updated, nil
}

// SaveOrUpdateUserInfo updates the lead record when one exists and inserts it
// otherwise. The check and the write are not atomic.
func (s *Store) SaveOrUpdateUserInfo(ctx context.Context, id string, info repo.UserInfo) (*repo.UserInfo, error) {
	_, err := s.GetUserInfo(ctx, id)
	switch {
	case err == nil:
		return s.UpdateUserInfo(ctx, id, info)
	case apperr.IsNotFound(err):
		return s.SaveUserInfo(ctx, id, info)
	default:
		return nil, err
	}
}

// GetUserInfo returns the conversation's lead record.
func (s *Store) GetUserInfo(ctx context.Context, id string) (*repo.UserInfo, error) {
	if _, err := ValidateConversationID(id); err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	info, err := s.repo.GetUserInfo(ctx, id)
	if err != nil {
		return nil, classify("get user info", "user info", id, err)
	}
	return info, nil
}

// GetAllUserInfo lists every lead record, newest first.
func (s *Store) GetAllUserInfo(ctx context.Context) ([]repo.UserInfo, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	infos, err := s.repo.ListUserInfo(ctx)
	if err != nil {
		return nil, classify("list user info", "user info", "", err)
	}
	return infos, nil
}

// -- Orders --

// CreateOrder persists an order built by the menu package.
func (s *Store) CreateOrder(ctx context.Context, order repo.Order) (*repo.Order, error) {
	if strings.TrimSpace(order.OrderID) == "" {
		return nil, apperr.Validation("order_id", "order_id is required")
	}
	if order.Status == "" {
		order.Status = repo.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	created, err := s.repo.InsertOrder(ctx, order)
	if err != nil {
		return nil, classify("create order", "order", order.OrderID, err)
	}
	s.logger.Info("order created", "order_id", created.OrderID, "total", created.Total)
	return created, nil
}

// GetOrder loads an order by id.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*repo.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation("order_id", "order_id is required")
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, classify("get order", "order", orderID, err)
	}
	return order, nil
}

// UpdateOrderStatus changes the status of an order.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) (*repo.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation("order_id", "order_id is required")
	}
	if strings.TrimSpace(status) == "" {
		return nil, apperr.Validation("status", "status is required")
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	order, err := s.repo.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, classify("update order status", "order", orderID, err)
	}
	return order, nil
}

// GetAllOrders lists every order, newest first.
func (s *Store) GetAllOrders(ctx context.Context) ([]repo.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, classify("list orders", "order", "", err)
	}
	return orders, nil
}
