package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	matchingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/matching"
	"github.com/genemasaka/kenyan-connections-circle/internal/transport/http/dto"
	httperrors "github.com/genemasaka/kenyan-connections-circle/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchingsvc.Service
}

func NewMatchesHandler(service *matchingsvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	profiles, err := h.service.Suggestions(r.Context(), identity.UserID)
	if err != nil {
		handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewProfileResponses(profiles))
}

func (h *MatchesHandler) Request(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	var req dto.MatchRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	recipientID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	match, err := h.service.SendRequest(r.Context(), identity.UserID, recipientID)
	if err != nil {
		handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MatchResponse{
		ID:        match.ID.String(),
		User1ID:   match.User1ID.String(),
		User2ID:   match.User2ID.String(),
		Status:    string(match.Status),
		CreatedAt: match.CreatedAt,
	})
}

func (h *MatchesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Accept)
}

func (h *MatchesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Reject)
}

func (h *MatchesHandler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, matchID uuid.UUID) (model.Match, error)) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	matchID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed match id")
		return
	}

	match, err := op(r.Context(), identity.UserID, matchID)
	if err != nil {
		handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchResponse{
		ID:        match.ID.String(),
		User1ID:   match.User1ID.String(),
		User2ID:   match.User2ID.String(),
		Status:    string(match.Status),
		CreatedAt: match.CreatedAt,
	})
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListMatched(r.Context(), identity.UserID)
	if err != nil {
		handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewMatchViewResponses(views))
}

func (h *MatchesHandler) Pending(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListPendingIncoming(r.Context(), identity.UserID)
	if err != nil {
		handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewMatchViewResponses(views))
}

func handleMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matchingsvc.ErrInvalidInput), errors.Is(err, matchingsvc.ErrSelfMatch):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, matchingsvc.ErrMatchNotFound):
		writeNotFound(w, "MATCH_NOT_FOUND", "match not found")
	case errors.Is(err, matchingsvc.ErrNotRecipient):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code: "NOT_RECIPIENT", Message: "only the recipient can respond to a request",
		})
	case errors.Is(err, matchingsvc.ErrNotPending):
		writeConflict(w, "NOT_PENDING", "match is no longer pending")
	case errors.Is(err, matchingsvc.ErrAlreadyRequested):
		writeConflict(w, "ALREADY_REQUESTED", "a request for this pair is already pending")
	case errors.Is(err, matchingsvc.ErrAlreadyMatched):
		writeConflict(w, "ALREADY_MATCHED", "pair is already matched")
	case errors.Is(err, matchingsvc.ErrRecentlyRejected):
		writeConflict(w, "RECENTLY_REJECTED", "this pair was rejected recently")
	case errors.Is(err, matchingsvc.ErrBlocked):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code: "BLOCKED", Message: "interaction with this member is not allowed",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
