package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrPairExists    = errors.New("match already exists for pair")
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// Create inserts a pending request. The table carries a unique index
// on (LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id)), so a
// concurrent duplicate for the same pair surfaces as ErrPairExists
// instead of a second row.
func (r *MatchRepo) Create(ctx context.Context, m model.Match) error {
	if m.ID == uuid.Nil || m.User1ID == uuid.Nil || m.User2ID == uuid.Nil || m.User1ID == m.User2ID {
		return fmt.Errorf("invalid match payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO matches (
	id,
	user1_id,
	user2_id,
	status,
	created_at
) VALUES ($1, $2, $3, $4, $5)
`, m.ID, m.User1ID, m.User2ID, string(m.Status), m.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrPairExists
		}
		return fmt.Errorf("insert match: %w", err)
	}

	return nil
}

// ReplaceRejected atomically retires a stale rejected record and
// inserts the fresh pending one, so the pair never holds two rows and
// a rejected row never transitions back to pending.
func (r *MatchRepo) ReplaceRejected(ctx context.Context, rejectedID uuid.UUID, m model.Match) error {
	if rejectedID == uuid.Nil {
		return fmt.Errorf("invalid rejected match id")
	}
	if m.ID == uuid.Nil || m.User1ID == uuid.Nil || m.User2ID == uuid.Nil || m.User1ID == m.User2ID {
		return fmt.Errorf("invalid match payload")
	}

	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		result, err := tx.Exec(txCtx, `
DELETE FROM matches
WHERE id = $1 AND status = 'rejected'
`, rejectedID)
		if err != nil {
			return fmt.Errorf("delete rejected match: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrMatchNotFound
		}

		if _, err := tx.Exec(txCtx, `
INSERT INTO matches (
	id,
	user1_id,
	user2_id,
	status,
	created_at
) VALUES ($1, $2, $3, $4, $5)
`, m.ID, m.User1ID, m.User2ID, string(m.Status), m.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrPairExists
			}
			return fmt.Errorf("insert replacement match: %w", err)
		}

		return nil
	})
}

func (r *MatchRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Match, error) {
	if id == uuid.Nil {
		return model.Match{}, fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	var m model.Match
	err := r.pool.QueryRow(ctx, `
SELECT id, user1_id, user2_id, status, created_at
FROM matches
WHERE id = $1
`, id).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}

	return m, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, a, b uuid.UUID) (model.Match, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return model.Match{}, fmt.Errorf("invalid pair")
	}
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	var m model.Match
	err := r.pool.QueryRow(ctx, `
SELECT id, user1_id, user2_id, status, created_at
FROM matches
WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
`, a, b).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match by pair: %w", err)
	}

	return m, nil
}

// UpdateStatusIfPending transitions a pending record; the WHERE guard
// makes calling it on a terminal record a reported no-op rather than a
// silent overwrite. Only the recipient may transition.
func (r *MatchRepo) UpdateStatusIfPending(ctx context.Context, id, recipientID uuid.UUID, status enums.MatchStatus) (bool, error) {
	if id == uuid.Nil || recipientID == uuid.Nil || !status.Terminal() {
		return false, fmt.Errorf("invalid status transition payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE matches
SET status = $3
WHERE id = $1 AND user2_id = $2 AND status = 'pending'
`, id, recipientID, string(status))
	if err != nil {
		return false, fmt.Errorf("update match status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []model.Match{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user1_id, user2_id, status, created_at
FROM matches
WHERE user1_id = $1 OR user2_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0, 16)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}

// DeleteRejectedOlderThan purges rejected rows whose request predates
// cutoff. Once the row is gone the pair becomes suggestable again.
func (r *MatchRepo) DeleteRejectedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM matches
WHERE status = 'rejected' AND created_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale rejected matches: %w", err)
	}

	return result.RowsAffected(), nil
}

// HasAccepted is the messaging-side authorization check.
func (r *MatchRepo) HasAccepted(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return false, fmt.Errorf("invalid pair")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM matches
WHERE ((user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1))
	AND status = 'accepted'
LIMIT 1
`, a, b).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup accepted match: %w", err)
	}

	return true, nil
}
