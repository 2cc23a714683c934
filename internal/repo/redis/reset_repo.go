package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/auth"
)

const resetPrefix = "pwreset:"

// ResetRepo holds single-use password-reset tokens with a TTL.
type ResetRepo struct {
	client *goredis.Client
}

func NewResetRepo(client *goredis.Client) *ResetRepo {
	return &ResetRepo{client: client}
}

func (r *ResetRepo) Create(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(token) == "" || userID == uuid.Nil || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}

	if err := r.client.Set(ctx, resetKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	return nil
}

// Consume returns the owning user and deletes the token in one round
// trip, so a token can never be redeemed twice.
func (r *ResetRepo) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	if r.client == nil {
		return uuid.Nil, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, authsvc.ErrInvalidInput
	}

	raw, err := r.client.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if err == goredis.Nil {
			return uuid.Nil, authsvc.ErrResetNotFound
		}
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}

	userID, parseErr := uuid.Parse(raw)
	if parseErr != nil || userID == uuid.Nil {
		return uuid.Nil, authsvc.ErrResetNotFound
	}

	return userID, nil
}

func resetKey(token string) string {
	return resetPrefix + token
}
