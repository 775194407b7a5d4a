package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const conversationColumns = `conversation_id::text, content, COALESCE(status, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// InsertConversation stores a new conversation row.
func (r *PostgresRepository) InsertConversation(ctx context.Context, conv Conversation) (*Conversation, error) {
	content, err := messagesJSON(conv.Content)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO conversations (conversation_id, content)
VALUES ($1, $2::jsonb)
RETURNING ` + conversationColumns + `;
`
	inserted, err := scanConversation(r.pool.QueryRow(ctx, q, conv.ConversationID, content))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return inserted, nil
}

// GetConversation returns a conversation by id.
func (r *PostgresRepository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	q := `
SELECT ` + conversationColumns + `
FROM conversations
WHERE conversation_id = $1
LIMIT 1;
`
	conv, err := scanConversation(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns every conversation, newest first.
func (r *PostgresRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	q := `
SELECT ` + conversationColumns + `
FROM conversations
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// UpdateConversationContent replaces the whole content array of a conversation.
func (r *PostgresRepository) UpdateConversationContent(ctx context.Context, id string, content []Message) (*Conversation, error) {
	payload, err := messagesJSON(content)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE conversations
SET content = $2::jsonb,
    updated_at = NOW()
WHERE conversation_id = $1
RETURNING ` + conversationColumns + `;
`
	conv, err := scanConversation(r.pool.QueryRow(ctx, q, id, payload))
	if err != nil {
		return nil, fmt.Errorf("update conversation content: %w", err)
	}
	return conv, nil
}

// UpdateConversationStatus sets the lifecycle status of a conversation.
func (r *PostgresRepository) UpdateConversationStatus(ctx context.Context, id, status string) (*Conversation, error) {
	q := `
UPDATE conversations
SET status = $2,
    updated_at = NOW()
WHERE conversation_id = $1
RETURNING ` + conversationColumns + `;
`
	conv, err := scanConversation(r.pool.QueryRow(ctx, q, id, status))
	if err != nil {
		return nil, fmt.Errorf("update conversation status: %w", err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation; info_user rows go with it via ON DELETE CASCADE.
func (r *PostgresRepository) DeleteConversation(ctx context.Context, id string) error {
	const q = `DELETE FROM conversations WHERE conversation_id = $1;`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var content []byte
	if err := row.Scan(&conv.ConversationID, &content, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msgs, err := messagesFromJSON(content)
	if err != nil {
		return nil, err
	}
	conv.Content = msgs
	return &conv, nil
}
