package repo

import (
	"context"
	"errors"
	"io/fs"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for data persistence.
//
// Rows are read and written as whole values; there is no row locking or
// version check, so concurrent writers to the same conversation are
// last-writer-wins.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Conversations
	InsertConversation(ctx context.Context, conv Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	UpdateConversationContent(ctx context.Context, id string, content []Message) (*Conversation, error)
	UpdateConversationStatus(ctx context.Context, id, status string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// Lead records
	InsertUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error)
	UpdateUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error)
	GetUserInfo(ctx context.Context, conversationID string) (*UserInfo, error)
	ListUserInfo(ctx context.Context) ([]UserInfo, error)

	// Orders
	InsertOrder(ctx context.Context, order Order) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}
