package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	messagingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/messaging"
	"github.com/genemasaka/kenyan-connections-circle/internal/transport/http/dto"
	httperrors "github.com/genemasaka/kenyan-connections-circle/internal/transport/http/errors"
)

type MessagesHandler struct {
	service *messagingsvc.Service
}

func NewMessagesHandler(service *messagingsvc.Service) *MessagesHandler {
	return &MessagesHandler{service: service}
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "malformed receiver id")
		return
	}

	message, err := h.service.Send(r.Context(), identity.UserID, receiverID, req.Content)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewMessageResponse(message))
}

func (h *MessagesHandler) Thread(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	otherID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	messages, err := h.service.ThreadWith(r.Context(), identity.UserID, otherID)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewMessageResponses(messages))
}

func (h *MessagesHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	summaries, err := h.service.ListConversations(r.Context(), identity.UserID)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewConversationResponses(summaries))
}

func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	senderID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed user id")
		return
	}

	count, err := h.service.MarkThreadRead(r.Context(), identity.UserID, senderID)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{MarkedRead: count})
}

func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	messageID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "malformed message id")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, messageID); err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func handleMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messagingsvc.ErrInvalidInput),
		errors.Is(err, messagingsvc.ErrEmptyMessage),
		errors.Is(err, messagingsvc.ErrMessageTooLong):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, messagingsvc.ErrNotMatched):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code: "NOT_MATCHED", Message: "messaging requires an accepted match",
		})
	case errors.Is(err, messagingsvc.ErrBlocked):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code: "BLOCKED", Message: "interaction with this member is not allowed",
		})
	case errors.Is(err, messagingsvc.ErrMessageNotFound):
		writeNotFound(w, "MESSAGE_NOT_FOUND", "message not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
