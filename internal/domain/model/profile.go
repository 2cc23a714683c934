package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is one row per identity, keyed by the auth user id.
type Profile struct {
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Profession     string    `json:"profession"`
	Interests      []string  `json:"interests"`
	LookingFor     string    `json:"looking_for"`
	ProfilePhoto   string    `json:"profile_photo"`
	ShowPhoto      bool      `json:"show_photo"`
	ShowProfession bool      `json:"show_profession"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial profile edit. Nil fields are left
// untouched by the merge.
type ProfileUpdate struct {
	Name           *string
	Age            *int
	Profession     *string
	Interests      []string
	LookingFor     *string
	ShowPhoto      *bool
	ShowProfession *bool
}

// PublicView strips fields the owner has chosen to hide. Email never
// leaves the auth service, so there is nothing to strip here for it.
func (p Profile) PublicView() Profile {
	out := p
	if !p.ShowPhoto {
		out.ProfilePhoto = ""
	}
	if !p.ShowProfession {
		out.Profession = ""
	}
	return out
}
