package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/genemasaka/kenyan-connections-circle/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// Auth happens via the Bearer token before the upgrade; origin
		// checks add nothing for a token-authenticated API.
		return true
	},
}

// WSHandler upgrades an authenticated request and parks the connection
// on the hub for live message delivery.
type WSHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{hub: hub, logger: logger}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if h.hub.Attach(conn, identity.UserID) == nil {
		h.logger.Warn("websocket hub is closed",
			zap.String("user_id", identity.UserID.String()))
	}
}
