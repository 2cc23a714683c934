package handlers

import (
	"errors"
	"net/http"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	mediasvc "github.com/genemasaka/kenyan-connections-circle/internal/services/media"
	profilessvc "github.com/genemasaka/kenyan-connections-circle/internal/services/profiles"
	"github.com/genemasaka/kenyan-connections-circle/internal/transport/http/dto"
	httperrors "github.com/genemasaka/kenyan-connections-circle/internal/transport/http/errors"
)

const maxPhotoUploadBytes = 5 << 20

type ProfileHandler struct {
	profiles *profilessvc.Service
	media    *mediasvc.Service
}

func NewProfileHandler(profiles *profilessvc.Service, media *mediasvc.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, media: media}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(profile))
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, err := h.profiles.Update(r.Context(), identity.UserID, model.ProfileUpdate{
		Name:           req.Name,
		Age:            req.Age,
		Profession:     req.Profession,
		Interests:      req.Interests,
		LookingFor:     req.LookingFor,
		ShowPhoto:      req.ShowPhoto,
		ShowProfession: req.ShowProfession,
	})
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(profile))
}

// Get serves another member's profile through the privacy filter.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityOrFail(w, r); !ok {
		return
	}

	userID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	profile, err := h.profiles.GetPublic(r.Context(), userID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(profile))
}

// UploadPhoto accepts multipart form data with a single "photo" part.
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}
	if h.media == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes)
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "photo part is required")
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.media.UploadProfilePhoto(r.Context(), identity.UserID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, mediasvc.ErrUnsupportedContent):
			writeBadRequest(w, "UNSUPPORTED_CONTENT", "photo must be jpeg, png or webp")
		case errors.Is(err, mediasvc.ErrTooLarge):
			writeBadRequest(w, "FILE_TOO_LARGE", "photo exceeds the size limit")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadPhotoResponse{PhotoURL: url})
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilessvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, profilessvc.ErrProfileNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
