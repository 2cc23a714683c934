package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

// ConversationRecord is one thread head: the counterpart plus the most
// recent message and the unread tally for the querying user.
type ConversationRecord struct {
	CounterpartID uuid.UUID
	LastMessage   string
	LastMessageAt time.Time
	UnreadCount   int
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, m model.Message) error {
	if m.ID == uuid.Nil || m.SenderID == uuid.Nil || m.ReceiverID == uuid.Nil || m.Content == "" {
		return fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO messages (
	id,
	sender_id,
	receiver_id,
	content,
	is_read,
	created_at
) VALUES ($1, $2, $3, $4, FALSE, $5)
`, m.ID, m.SenderID, m.ReceiverID, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (r *MessageRepo) ListBetween(ctx context.Context, a, b uuid.UUID) ([]model.Message, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, fmt.Errorf("invalid pair")
	}
	if r.pool == nil {
		return []model.Message{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, sender_id, receiver_id, content, is_read, created_at
FROM messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at ASC, id ASC
`, a, b)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, 32)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

func (r *MessageRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []ConversationRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
WITH convo AS (
	SELECT
		CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS counterpart_id,
		content,
		created_at,
		receiver_id,
		is_read
	FROM messages
	WHERE sender_id = $1 OR receiver_id = $1
)
SELECT
	c.counterpart_id,
	(
		SELECT c2.content
		FROM convo c2
		WHERE c2.counterpart_id = c.counterpart_id
		ORDER BY c2.created_at DESC
		LIMIT 1
	) AS last_message,
	MAX(c.created_at) AS last_message_at,
	COUNT(*) FILTER (WHERE c.receiver_id = $1 AND NOT c.is_read)::int AS unread_count
FROM convo c
GROUP BY c.counterpart_id
ORDER BY last_message_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]ConversationRecord, 0, 16)
	for rows.Next() {
		var rec ConversationRecord
		if err := rows.Scan(&rec.CounterpartID, &rec.LastMessage, &rec.LastMessageAt, &rec.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversations: %w", rows.Err())
	}

	return items, nil
}

// MarkRead flags every message from senderID addressed to receiverID.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	if receiverID == uuid.Nil || senderID == uuid.Nil {
		return 0, fmt.Errorf("invalid pair")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE messages
SET is_read = TRUE
WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
`, receiverID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByID removes one message; only its sender may delete it.
func (r *MessageRepo) DeleteByID(ctx context.Context, id, senderID uuid.UUID) (bool, error) {
	if id == uuid.Nil || senderID == uuid.Nil {
		return false, fmt.Errorf("invalid message delete payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM messages
WHERE id = $1 AND sender_id = $2
`, id, senderID)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
