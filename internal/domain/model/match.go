package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
)

// Match is a directional request: User1ID is always the requester,
// User2ID the recipient. The store keeps at most one row per unordered
// pair.
type Match struct {
	ID        uuid.UUID         `json:"id"`
	User1ID   uuid.UUID         `json:"user1_id"`
	User2ID   uuid.UUID         `json:"user2_id"`
	Status    enums.MatchStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// Counterpart returns the other side of the pair relative to userID.
func (m Match) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

func (m Match) Involves(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}
