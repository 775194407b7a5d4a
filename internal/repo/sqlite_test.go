package repo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-chat/migrations"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "chat.db"), logger)
	require.NoError(t, err)
	t.Cleanup(r.Close)

	files, err := migrations.For("sqlite")
	require.NoError(t, err)
	require.NoError(t, r.RunMigrations(ctx, files))
	return r
}

func TestSQLiteConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRepo(t)
	id := "8a6e0804-2bd0-4672-b79d-d97027f9071a"

	created, err := r.InsertConversation(ctx, Conversation{ConversationID: id})
	require.NoError(t, err)
	assert.Empty(t, created.Content)
	assert.False(t, created.CreatedAt.IsZero())

	msgs := []Message{
		{Role: RoleUser, Content: "Cho tôi xem menu", Timestamp: "2024-05-01T10:00:00Z"},
		{Role: RoleAssistant, Content: "Dạ đây ạ", Timestamp: "2024-05-01T10:00:01Z"},
	}
	updated, err := r.UpdateConversationContent(ctx, id, msgs)
	require.NoError(t, err)
	assert.Equal(t, msgs, updated.Content)

	withStatus, err := r.UpdateConversationStatus(ctx, id, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, withStatus.Status)

	got, err := r.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, msgs, got.Content)

	list, err := r.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.DeleteConversation(ctx, id))
	_, err = r.GetConversation(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteUpdateConversationMissing(t *testing.T) {
	r := newSQLiteRepo(t)
	_, err := r.UpdateConversationContent(context.Background(), "nope", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteUserInfoMergeAndCascade(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRepo(t)
	id := "c3b0d1f0-7a55-4d8e-8f7b-52c1bb3a9e10"

	_, err := r.InsertConversation(ctx, Conversation{ConversationID: id})
	require.NoError(t, err)

	_, err = r.GetUserInfo(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))

	inserted, err := r.InsertUserInfo(ctx, UserInfo{ConversationID: id, Name: "Minh", LeadQuality: 3})
	require.NoError(t, err)
	assert.NotZero(t, inserted.ID)
	assert.Equal(t, "Minh", inserted.Name)
	assert.Empty(t, inserted.Email)

	updated, err := r.UpdateUserInfo(ctx, UserInfo{ConversationID: id, Email: "minh@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Minh", updated.Name)
	assert.Equal(t, "minh@example.com", updated.Email)
	assert.Equal(t, 3, updated.LeadQuality)

	updated, err = r.UpdateUserInfo(ctx, UserInfo{ConversationID: id, LeadQuality: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.LeadQuality)

	all, err := r.ListUserInfo(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, r.DeleteConversation(ctx, id))
	all, err = r.ListUserInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteUserInfoRequiresConversation(t *testing.T) {
	r := newSQLiteRepo(t)
	_, err := r.InsertUserInfo(context.Background(), UserInfo{ConversationID: "ghost", LeadQuality: 3})
	assert.Error(t, err)
}

func TestSQLiteOrders(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRepo(t)
	created := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	order := Order{
		OrderID: "ORD-1717230600000",
		Items: []OrderItem{
			{ID: 1, Name: "Bánh tiramisu", Price: 45000, Quantity: 2},
			{ID: 9, Name: "Cà phê đen", Price: 10000, Quantity: 1},
		},
		Total:        100000,
		CustomerInfo: map[string]any{"name": "Hoa"},
		Status:       OrderStatusPending,
		CreatedAt:    created,
	}
	inserted, err := r.InsertOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, created, inserted.CreatedAt)
	assert.Equal(t, float64(100000), inserted.Total)
	assert.Equal(t, "Hoa", inserted.CustomerInfo["name"])
	assert.Empty(t, inserted.DeliveryInfo)

	shipped, err := r.UpdateOrderStatus(ctx, order.OrderID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", shipped.Status)

	got, err := r.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.Items, got.Items)

	_, err = r.GetOrder(ctx, "ORD-0")
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := r.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteTimeLayoutSortsLexically(t *testing.T) {
	whole := formatSQLiteTime(time.Date(2024, 1, 1, 10, 0, 1, 0, time.UTC))
	frac := formatSQLiteTime(time.Date(2024, 1, 1, 10, 0, 0, 500, time.UTC))
	assert.Less(t, frac, whole)

	parsed, err := parseSQLiteTime(whole)
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())
}
