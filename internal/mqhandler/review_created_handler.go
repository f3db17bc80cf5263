package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"freework/internal/events"
	"freework/internal/model"
	"freework/pkg/metrics"
)

type ReviewCreatedHandler struct {
	repo    NotificationStore
	deduper Deduper
	logger  *zap.Logger
}

func NewReviewCreatedHandler(repo NotificationStore, deduper Deduper, logger *zap.Logger) *ReviewCreatedHandler {
	return &ReviewCreatedHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the reviewed party about the new rating.
func (h *ReviewCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p events.ReviewCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal review created payload", zap.Error(err))
		return err
	}

	if !h.deduper.SetNX(ctx, dedupKey("review_created", p.ReviewID), dedupTTL) {
		return nil
	}

	notif := &model.Notification{
		UserID:  p.ReviewedID,
		Type:    "review_created",
		Content: fmt.Sprintf("You received a %d-star review", p.Rating),
	}
	if err := h.repo.Insert(ctx, notif); err != nil {
		h.logger.Error("Failed to insert notification",
			zap.Int("review_id", p.ReviewID),
			zap.Int("user_id", p.ReviewedID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementNotification("review_created")
	return nil
}
