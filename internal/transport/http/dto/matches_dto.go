package dto

import (
	"time"

	"github.com/genemasaka/kenyan-connections-circle/internal/services/matching"
)

type MatchRequestRequest struct {
	UserID string `json:"user_id"`
}

type MatchResponse struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type MatchViewResponse struct {
	Match   MatchResponse   `json:"match"`
	Profile ProfileResponse `json:"profile"`
}

func NewMatchViewResponses(views []matching.MatchView) []MatchViewResponse {
	out := make([]MatchViewResponse, len(views))
	for i, v := range views {
		out[i] = MatchViewResponse{
			Match: MatchResponse{
				ID:        v.Match.ID.String(),
				User1ID:   v.Match.User1ID.String(),
				User2ID:   v.Match.User2ID.String(),
				Status:    string(v.Match.Status),
				CreatedAt: v.Match.CreatedAt,
			},
			Profile: NewProfileResponse(v.Profile),
		}
	}
	return out
}
