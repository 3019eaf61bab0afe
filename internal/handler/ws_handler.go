package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/middleware"
	"github.com/lexlink/chat-backend/internal/service"
	"github.com/lexlink/chat-backend/internal/ws"
)

// WSHandler handles chat WebSocket connections
type WSHandler struct {
	hub            *ws.Hub
	chat           service.ChatService
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, chat service.ChatService, allowedOrigins string) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		chat:           chat,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Same-origin requests don't have Origin header
	}

	// No allowed origins configured: allow all (development mode)
	if len(h.allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// Connect handles GET /ws/chat — WebSocket upgrade
// @Summary Chat WebSocket endpoint
// @Tags chat
// @Router /ws/chat [get]
func (h *WSHandler) Connect(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Presence is announced by the client's user_connected event, not by
	// the upgrade itself.
	client := ws.NewClient(h.hub, h.chat, conn, identity)

	go client.WritePump()
	go client.ReadPump()
}

// Online handles GET /api/v1/chat/online — presence snapshot so a fresh
// client can seed its online-set before user_status deltas arrive.
// @Summary Identities currently online on this instance
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /chat/online [get]
func (h *WSHandler) Online(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	common.SuccessResponse(c, h.hub.Online(), nil)
}
