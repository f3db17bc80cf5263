package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freework/internal/service/review"
)

type ReviewHandler struct {
	reviewService *review.Service
}

func NewReviewHandler(reviewService *review.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Submit handles POST /reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	ident, ok := identityFrom(c)
	if !ok {
		return
	}

	var req review.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rv, err := h.reviewService.Submit(c.Request.Context(), ident, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": rv})
}

// ListForUser handles GET /users/:id/reviews
func (h *ReviewHandler) ListForUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListForUser(c.Request.Context(), id, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
