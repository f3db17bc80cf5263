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

type ContractCompletedHandler struct {
	repo    NotificationStore
	deduper Deduper
	logger  *zap.Logger
}

func NewContractCompletedHandler(repo NotificationStore, deduper Deduper, logger *zap.Logger) *ContractCompletedHandler {
	return &ContractCompletedHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the company that the work was delivered.
func (h *ContractCompletedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p events.ContractCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal contract completed payload", zap.Error(err))
		return err
	}

	if !h.deduper.SetNX(ctx, dedupKey("contract_completed", p.ContractID), dedupTTL) {
		return nil
	}

	notif := &model.Notification{
		UserID:  p.CompanyUserID,
		Type:    "contract_completed",
		Content: fmt.Sprintf("Contract for project %q was completed", p.ProjectTitle),
	}
	if err := h.repo.Insert(ctx, notif); err != nil {
		h.logger.Error("Failed to insert notification",
			zap.Int("contract_id", p.ContractID),
			zap.Int("user_id", p.CompanyUserID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementNotification("contract_completed")
	return nil
}
