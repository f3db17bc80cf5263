package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"freework/internal/model"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Insert(ctx context.Context, m *model.Message) error {
	query := `
        INSERT INTO messages (sender_id, recipient_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, is_read, created_at
    `
	return r.db.QueryRow(ctx, query,
		m.SenderID,
		m.RecipientID,
		m.Body,
	).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
}

// ListConversation returns the two-way thread between two users, newest first.
func (r *MessageRepository) ListConversation(ctx context.Context, userA, userB, limit int) ([]model.Message, error) {
	query := `
        SELECT id, sender_id, recipient_id, body, is_read, created_at
        FROM messages
        WHERE (sender_id = $1 AND recipient_id = $2)
           OR (sender_id = $2 AND recipient_id = $1)
        ORDER BY created_at DESC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.RecipientID,
			&m.Body,
			&m.IsRead,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkRead flips the read flag; only the recipient may do it.
func (r *MessageRepository) MarkRead(ctx context.Context, id, recipientID int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
