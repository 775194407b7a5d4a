package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userInfoColumns = `id, conversation_id::text, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone_number, ''),
    COALESCE(company, ''), COALESCE(position, ''), lead_quality, created_at, updated_at`

// InsertUserInfo stores a new lead record. It does not check for an existing
// row with the same conversation_id.
func (r *PostgresRepository) InsertUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error) {
	q := `
INSERT INTO info_user (conversation_id, name, email, phone_number, company, position, lead_quality)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
RETURNING ` + userInfoColumns + `;
`
	row := r.pool.QueryRow(ctx, q,
		info.ConversationID,
		info.Name,
		info.Email,
		info.PhoneNumber,
		info.Company,
		info.Position,
		info.LeadQuality,
	)
	inserted, err := scanUserInfo(row)
	if err != nil {
		return nil, fmt.Errorf("insert user info: %w", err)
	}
	return inserted, nil
}

// UpdateUserInfo overwrites the non-empty fields of the lead record for
// info.ConversationID. A zero LeadQuality keeps the stored score.
func (r *PostgresRepository) UpdateUserInfo(ctx context.Context, info UserInfo) (*UserInfo, error) {
	q := `
UPDATE info_user
SET name = COALESCE(NULLIF($2, ''), name),
    email = COALESCE(NULLIF($3, ''), email),
    phone_number = COALESCE(NULLIF($4, ''), phone_number),
    company = COALESCE(NULLIF($5, ''), company),
    position = COALESCE(NULLIF($6, ''), position),
    lead_quality = COALESCE(NULLIF($7, 0), lead_quality),
    updated_at = NOW()
WHERE conversation_id = $1
RETURNING ` + userInfoColumns + `;
`
	row := r.pool.QueryRow(ctx, q,
		info.ConversationID,
		info.Name,
		info.Email,
		info.PhoneNumber,
		info.Company,
		info.Position,
		info.LeadQuality,
	)
	updated, err := scanUserInfo(row)
	if err != nil {
		return nil, fmt.Errorf("update user info: %w", err)
	}
	return updated, nil
}

// GetUserInfo returns the most recently updated lead record of a conversation.
func (r *PostgresRepository) GetUserInfo(ctx context.Context, conversationID string) (*UserInfo, error) {
	q := `
SELECT ` + userInfoColumns + `
FROM info_user
WHERE conversation_id = $1
ORDER BY updated_at DESC
LIMIT 1;
`
	info, err := scanUserInfo(r.pool.QueryRow(ctx, q, conversationID))
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	return info, nil
}

// ListUserInfo returns every lead record, newest first.
func (r *PostgresRepository) ListUserInfo(ctx context.Context) ([]UserInfo, error) {
	q := `
SELECT ` + userInfoColumns + `
FROM info_user
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list user info: %w", err)
	}
	defer rows.Close()

	infos := []UserInfo{}
	for rows.Next() {
		info, err := scanUserInfo(rows)
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

func scanUserInfo(row rowScanner) (*UserInfo, error) {
	var u UserInfo
	if err := row.Scan(&u.ID, &u.ConversationID, &u.Name, &u.Email, &u.PhoneNumber, &u.Company, &u.Position, &u.LeadQuality, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
