package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqliteConversationColumns = `conversation_id, content, COALESCE(status, ''), created_at, updated_at`

const sqliteUserInfoColumns = `id, conversation_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone_number, ''),
    COALESCE(company, ''), COALESCE(position, ''), lead_quality, created_at, updated_at`

const sqliteOrderColumns = `order_id, items, total, customer_info, delivery_info, status, created_at, updated_at`

// -- Conversations --

func (r *SQLiteRepository) InsertConversation(ctx context.Context, conv Conversation) (*Conversation, error) {
	content, err := messagesJSON(conv.Content)
	if err != nil {
		return nil, err
	}
	now := r.timestamp()
	q := `
INSERT INTO conversations (conversation_id, content, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING ` + sqliteConversationColumns + `;
`
	inserted, err := scanSQLiteConversation(r.db.QueryRowContext(ctx, q, conv.ConversationID, content, now, now))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	q := `
SELECT ` + sqliteConversationColumns + `
FROM conversations
WHERE conversation_id = ?
LIMIT 1;
`
	conv, err := scanSQLiteConversation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (r *SQLiteRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	q := `
SELECT ` + sqliteConversationColumns + `
FROM conversations
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		conv, err := scanSQLiteConversation(rows)
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

func (r *SQLiteRepository) UpdateConversationContent(ctx context.Context, id string, content []Message) (*Conversation, error) {
	payload, err := messagesJSON(content)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE conversations
SET content = ?,
    updated_at = ?
WHERE conversation_id = ?
RETURNING ` + sqliteConversationColumns + `;
`
	conv, err := scanSQLiteConversation(r.db.QueryRowContext(ctx, q, payload, r.timestamp(), id))
	if err != nil {
		return nil, fmt.Errorf("update conversation content: %w", err)
	}
	return conv, nil
}

func (r *SQLiteRepository) UpdateConversationStatus(ctx context.Context, id, status string) (*Conversation, error) {
	q := `
UPDATE conversations
SET status = ?,
    updated_at = ?
WHERE conversation_id = ?
RETURNING ` + sqliteConversationColumns + `;
`
	conv, err := scanSQLiteConversation(r.db.QueryRowContext(ctx, q, status, r.timestamp(), id))
	if err != nil {
		return nil, fmt.Errorf("update conversation status: %w", err)
	}
	return conv, nil
}

func (r *SQLiteRepository) DeleteConversation(ctx context.Context, id string) error {
	const q = `DELETE FROM conversations WHERE conversation_id = ?;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// -- Lead records --

func (r *SQLiteRepository) InsertUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error) {
	now := r.timestamp()
	q := `
INSERT INTO info_user (conversation_id, name, email, phone_number, company, position, lead_quality, created_at, updated_at)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)
RETURNING ` + sqliteUserInfoColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		info.ConversationID,
		info.Name,
		info.Email,
		info.PhoneNumber,
		info.Company,
		info.Position,
		info.LeadQuality,
		now,
		now,
	)
	inserted, err := scanSQLiteUserInfo(row)
	if err != nil {
		return nil, fmt.Errorf("insert user info: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) UpdateUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error) {
	q := `
UPDATE info_user
SET name = COALESCE(NULLIF(?, ''), name),
    email = COALESCE(NULLIF(?, ''), email),
    phone_number = COALESCE(NULLIF(?, ''), phone_number),
    company = COALESCE(NULLIF(?, ''), company),
    position = COALESCE(NULLIF(?, ''), position),
    lead_quality = COALESCE(NULLIF(?, 0), lead_quality),
    updated_at = ?
WHERE conversation_id = ?
RETURNING ` + sqliteUserInfoColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		info.Name,
		info.Email,
		info.PhoneNumber,
		info.Company,
		info.Position,
		info.LeadQuality,
		r.timestamp(),
		info.ConversationID,
	)
	updated, err := scanSQLiteUserInfo(row)
	if err != nil {
		return nil, fmt.Errorf("update user info: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) GetUserInfo(ctx context.Context, conversationID string) (*UserInfo, error) {
	q := `
SELECT ` + sqliteUserInfoColumns + `
FROM info_user
WHERE conversation_id = ?
ORDER BY updated_at DESC, id DESC
LIMIT 1;
`
	info, err := scanSQLiteUserInfo(r.db.QueryRowContext(ctx, q, conversationID))
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	return info, nil
}

func (r *SQLiteRepository) ListUserInfo(ctx context.Context) ([]UserInfo, error) {
	q := `
SELECT ` + sqliteUserInfoColumns + `
FROM info_user
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list user info: %w", err)
	}
	defer rows.Close()

	infos := []UserInfo{}
	for rows.Next() {
		info, err := scanSQLiteUserInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user info: %w", err)
		}
		infos = append(infos, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user info: %w", err)
	}
	return infos, nil
}

// -- Orders --

func (r *SQLiteRepository) InsertOrder(ctx context.Context, order Order) (*Order, error) {
	items, err := itemsJSON(order.Items)
	if err != nil {
		return nil, err
	}
	customer, err := objectJSON(order.CustomerInfo)
	if err != nil {
		return nil, err
	}
	delivery, err := objectJSON(order.DeliveryInfo)
	if err != nil {
		return nil, err
	}

	created := r.timestamp()
	if !order.CreatedAt.IsZero() {
		created = formatSQLiteTime(order.CreatedAt)
	}
	q := `
INSERT INTO orders (order_id, items, total, customer_info, delivery_info, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + sqliteOrderColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		order.OrderID,
		items,
		order.Total,
		customer,
		delivery,
		order.Status,
		created,
		created,
	)
	inserted, err := scanSQLiteOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	q := `
SELECT ` + sqliteOrderColumns + `
FROM orders
WHERE order_id = ?
LIMIT 1;
`
	order, err := scanSQLiteOrder(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *SQLiteRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	q := `
UPDATE orders
SET status = ?,
    updated_at = ?
WHERE order_id = ?
RETURNING ` + sqliteOrderColumns + `;
`
	order, err := scanSQLiteOrder(r.db.QueryRowContext(ctx, q, status, r.timestamp(), orderID))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return order, nil
}

func (r *SQLiteRepository) ListOrders(ctx context.Context) ([]Order, error) {
	q := `
SELECT ` + sqliteOrderColumns + `
FROM orders
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		order, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// -- Scanners --

func scanSQLiteConversation(row rowScanner) (*Conversation, error) {
	var conv Conversation
	var content, created, updated string
	if err := row.Scan(&conv.ConversationID, &content, &conv.Status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msgs, err := messagesFromJSON([]byte(content))
	if err != nil {
		return nil, err
	}
	conv.Content = msgs
	if conv.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if conv.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &conv, nil
}

func scanSQLiteUserInfo(row rowScanner) (*UserInfo, error) {
	var u UserInfo
	var created, updated string
	if err := row.Scan(&u.ID, &u.ConversationID, &u.Name, &u.Email, &u.PhoneNumber, &u.Company, &u.Position, &u.LeadQuality, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanSQLiteOrder(row rowScanner) (*Order, error) {
	var order Order
	var items, customer, delivery, created, updated string
	if err := row.Scan(&order.OrderID, &items, &order.Total, &customer, &delivery, &order.Status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := itemsFromJSON([]byte(items))
	if err != nil {
		return nil, err
	}
	order.Items = parsed
	order.CustomerInfo = objectFromJSON([]byte(customer))
	order.DeliveryInfo = objectFromJSON([]byte(delivery))
	if order.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if order.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &order, nil
}
