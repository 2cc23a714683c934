package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
)

type Report struct {
	ID         uuid.UUID          `json:"id"`
	ReporterID uuid.UUID          `json:"reporter_id"`
	TargetID   uuid.UUID          `json:"target_id"`
	Reason     enums.ReportReason `json:"reason"`
	Details    string             `json:"details"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}
