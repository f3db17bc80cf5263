package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"freework/internal/events"
	"freework/internal/model"
	"freework/pkg/metrics"
)

type MessageSentHandler struct {
	repo    NotificationStore
	deduper Deduper
	logger  *zap.Logger
}

func NewMessageSentHandler(repo NotificationStore, deduper Deduper, logger *zap.Logger) *MessageSentHandler {
	return &MessageSentHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the recipient about a new direct message.
func (h *MessageSentHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p events.MessageSentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal message sent payload", zap.Error(err))
		return err
	}

	if !h.deduper.SetNX(ctx, dedupKey("message_sent", p.MessageID), dedupTTL) {
		return nil
	}

	notif := &model.Notification{
		UserID:  p.RecipientID,
		Type:    "message_sent",
		Content: "You have a new message",
	}
	if err := h.repo.Insert(ctx, notif); err != nil {
		h.logger.Error("Failed to insert notification",
			zap.Int("message_id", p.MessageID),
			zap.Int("user_id", p.RecipientID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementNotification("message_sent")
	return nil
}
