package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"freework/internal/repository"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	limit := intQuery(c, "limit")
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	notifications, err := h.repo.ListByUser(c.Request.Context(), ident.UserID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), id, ident.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
