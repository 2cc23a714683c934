package model

import (
	"time"

	"github.com/google/uuid"
)

// Block is a one-directional suppression: the blocker no longer sees
// the blocked identity anywhere, and the blocked identity may not
// interact with the blocker.
type Block struct {
	ID        uuid.UUID `json:"id"`
	BlockerID uuid.UUID `json:"blocker_id"`
	BlockedID uuid.UUID `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}
