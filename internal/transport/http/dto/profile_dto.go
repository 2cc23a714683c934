package dto

import (
	"time"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

type ProfileResponse struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Profession     string    `json:"profession,omitempty"`
	Interests      []string  `json:"interests"`
	LookingFor     string    `json:"looking_for,omitempty"`
	ProfilePhoto   string    `json:"profile_photo,omitempty"`
	ShowPhoto      bool      `json:"show_photo"`
	ShowProfession bool      `json:"show_profession"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewProfileResponse(p model.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:         p.UserID.String(),
		Name:           p.Name,
		Age:            p.Age,
		Profession:     p.Profession,
		Interests:      p.Interests,
		LookingFor:     p.LookingFor,
		ProfilePhoto:   p.ProfilePhoto,
		ShowPhoto:      p.ShowPhoto,
		ShowProfession: p.ShowProfession,
		CreatedAt:      p.CreatedAt,
	}
}

func NewProfileResponses(profiles []model.Profile) []ProfileResponse {
	out := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = NewProfileResponse(p)
	}
	return out
}

// UpdateProfileRequest is a partial edit; absent fields stay as they
// are.
type UpdateProfileRequest struct {
	Name           *string  `json:"name"`
	Age            *int     `json:"age"`
	Profession     *string  `json:"profession"`
	Interests      []string `json:"interests"`
	LookingFor     *string  `json:"looking_for"`
	ShowPhoto      *bool    `json:"show_photo"`
	ShowProfession *bool    `json:"show_profession"`
}

type UploadPhotoResponse struct {
	PhotoURL string `json:"photo_url"`
}
