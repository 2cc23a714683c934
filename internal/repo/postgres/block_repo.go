package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// Upsert is idempotent: blocking an already-blocked identity succeeds
// without a second row.
func (r *BlockRepo) Upsert(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == uuid.Nil || blockedID == uuid.Nil || blockerID == blockedID {
		return fmt.Errorf("invalid block payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO blocks (
	id,
	blocker_id,
	blocked_id,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (blocker_id, blocked_id) DO NOTHING
`, uuid.New(), blockerID, blockedID); err != nil {
		return fmt.Errorf("upsert block: %w", err)
	}

	return nil
}

func (r *BlockRepo) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return false, fmt.Errorf("invalid unblock payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM blocks
WHERE blocker_id = $1 AND blocked_id = $2
`, blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("delete block: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *BlockRepo) Exists(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	if blockerID == uuid.Nil || blockedID == uuid.Nil {
		return false, fmt.Errorf("invalid block lookup")
	}
	if r.pool == nil {
		return false, nil
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM blocks
WHERE blocker_id = $1 AND blocked_id = $2
LIMIT 1
`, blockerID, blockedID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup block: %w", err)
	}

	return true, nil
}

// IsBlockedEither reports whether either side has blocked the other.
func (r *BlockRepo) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return false, fmt.Errorf("invalid block lookup")
	}
	if r.pool == nil {
		return false, nil
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM blocks
WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
LIMIT 1
`, a, b).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup mutual block: %w", err)
	}

	return true, nil
}

func (r *BlockRepo) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]uuid.UUID, error) {
	if blockerID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []uuid.UUID{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT blocked_id
FROM blocks
WHERE blocker_id = $1
ORDER BY created_at DESC
`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// BlockedEitherIDs returns everyone the user has blocked plus everyone
// who has blocked the user, for exclusion from suggestion lists.
func (r *BlockRepo) BlockedEitherIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []uuid.UUID{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT blocked_id FROM blocks WHERE blocker_id = $1
UNION
SELECT blocker_id FROM blocks WHERE blocked_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list block relations: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, 16)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate ids: %w", rows.Err())
	}
	return ids, nil
}
