package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         enums.Role `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
