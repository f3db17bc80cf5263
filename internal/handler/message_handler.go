package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freework/internal/service/message"
)

type MessageHandler struct {
	messageService *message.Service
}

func NewMessageHandler(messageService *message.Service) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send handles POST /messages
func (h *MessageHandler) Send(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	var req message.SendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := h.messageService.Send(c.Request.Context(), ident, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": m})
}

// Conversation handles GET /messages/:id, where id is the other user.
func (h *MessageHandler) Conversation(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	otherID, ok := intParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(c.Request.Context(), ident, otherID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkRead handles POST /messages/:id/read, where id is the message.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), ident, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
