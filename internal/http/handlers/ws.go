package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
)

type tokenParser interface {
	ParseToken(raw string) (domain.AuthIdentity, error)
}

// WSHandler upgrades authenticated clients onto the notification hub.
type WSHandler struct {
	hub      *notify.Hub
	auth     tokenParser
	logger   logx.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *notify.Hub, auth tokenParser, logger logx.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		auth:   auth,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve handles GET /ws. The token is checked before the upgrade, so an
// unauthenticated client never reaches the hub.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if raw == "" {
		raw = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	if raw == "" {
		writeError(h.logger, w, r, http.StatusUnauthorized, "missing token")
		return
	}

	identity, err := h.auth.ParseToken(raw)
	if err != nil {
		h.logger.Debug("ws auth rejected", logx.Err(err))
		writeError(h.logger, w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("ws upgrade failed", logx.Err(err))
		return
	}

	client := notify.NewClient(h.hub, conn, identity.ID, identity.Role, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
