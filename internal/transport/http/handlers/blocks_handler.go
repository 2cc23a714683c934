package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	blockingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/blocking"
	"github.com/genemasaka/kenyan-connections-circle/internal/transport/http/dto"
	httperrors "github.com/genemasaka/kenyan-connections-circle/internal/transport/http/errors"
)

type BlocksHandler struct {
	service *blockingsvc.Service
}

func NewBlocksHandler(service *blockingsvc.Service) *BlocksHandler {
	return &BlocksHandler{service: service}
}

func (h *BlocksHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	targetID, ok := uuidParam(r, "userID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	if err := h.service.Block(r.Context(), identity.UserID, targetID); err != nil {
		handleBlockError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *BlocksHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	targetID, ok := uuidParam(r, "userID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	if err := h.service.Unblock(r.Context(), identity.UserID, targetID); err != nil {
		handleBlockError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *BlocksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	profiles, err := h.service.ListBlocked(r.Context(), identity.UserID)
	if err != nil {
		handleBlockError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewProfileResponses(profiles))
}

func (h *BlocksHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	var req dto.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "malformed target id")
		return
	}

	err = h.service.Report(r.Context(), identity.UserID, targetID, enums.ReportReason(req.Reason), req.Details)
	if err != nil {
		var rateErr *blockingsvc.RateLimitedError
		if errors.As(err, &rateErr) {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "REPORT_RATE_LIMITED",
				Message:       "too many reports, slow down",
				RetryAfterSec: int64(rateErr.RetryAfter.Seconds()),
			})
			return
		}
		handleBlockError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.OKResponse{OK: true})
}

func handleBlockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blockingsvc.ErrInvalidInput),
		errors.Is(err, blockingsvc.ErrSelfBlock),
		errors.Is(err, blockingsvc.ErrSelfReport),
		errors.Is(err, blockingsvc.ErrInvalidReason):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
