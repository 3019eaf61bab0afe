package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/domain"
	"github.com/lexlink/chat-backend/internal/middleware"
	"github.com/lexlink/chat-backend/internal/service"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service service.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// partnerParam reads the (partnerId, partnerType) pair from the path.
func partnerParam(c *gin.Context) (domain.Identity, error) {
	id, err := strconv.Atoi(c.Param("partnerId"))
	if err != nil || id < 1 {
		return domain.Identity{}, common.ErrInvalidIdentity
	}
	kind, err := domain.ParseKind(c.Param("partnerType"))
	if err != nil {
		return domain.Identity{}, common.ErrInvalidIdentity
	}
	return domain.Identity{ID: id, Kind: kind}, nil
}

// GetConversations handles GET /api/v1/chat/conversations
// @Summary Conversation list
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.ConversationSummary}
// @Security BearerAuth
// @Router /chat/conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	summaries, err := h.service.Conversations(identity)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load conversations", err)
		return
	}

	common.SuccessResponse(c, summaries, nil)
}

// GetMessages handles GET /api/v1/chat/messages/:partnerId/:partnerType
// @Summary Message history with one partner
// @Tags chat
// @Produce json
// @Param partnerId path int true "partner ID"
// @Param partnerType path string true "partner type (user|lawyer)"
// @Param limit query int false "page size"
// @Param offset query int false "offset from the newest message"
// @Success 200 {object} common.APIResponse{data=[]domain.Message}
// @Security BearerAuth
// @Router /chat/messages/{partnerId}/{partnerType} [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	partner, err := partnerParam(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid partner", err)
		return
	}

	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o > 0 {
		offset = o
	}

	messages, meta, err := h.service.History(identity, partner, limit, offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load messages", err)
		return
	}

	common.SuccessResponse(c, messages, meta)
}

// MarkRead handles PUT /api/v1/chat/messages/read/:partnerId/:partnerType
// @Summary Mark all messages from a partner as read
// @Tags chat
// @Produce json
// @Param partnerId path int true "partner ID"
// @Param partnerType path string true "partner type (user|lawyer)"
// @Success 204
// @Security BearerAuth
// @Router /chat/messages/read/{partnerId}/{partnerType} [put]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	partner, err := partnerParam(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid partner", err)
		return
	}

	if err := h.service.MarkRead(identity, partner); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to mark messages read", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUnread handles GET /api/v1/chat/unread
// @Summary Total unread count for the requester
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /chat/unread [get]
func (h *ChatHandler) GetUnread(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	total, err := h.service.UnreadTotal(identity)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to count unread messages", err)
		return
	}

	common.SuccessResponse(c, gin.H{"unread": total}, nil)
}

// DeleteConversation handles DELETE /api/v1/chat/conversations/:partnerId/:partnerType
// @Summary Delete the whole exchange with a partner
// @Tags chat
// @Produce json
// @Param partnerId path int true "partner ID"
// @Param partnerType path string true "partner type (user|lawyer)"
// @Success 204
// @Security BearerAuth
// @Router /chat/conversations/{partnerId}/{partnerType} [delete]
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if !identity.Valid() {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	partner, err := partnerParam(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid partner", err)
		return
	}

	if err := h.service.DeleteConversation(identity, partner); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "conversation not found", err)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to delete conversation", err)
		return
	}

	c.Status(http.StatusNoContent)
}
