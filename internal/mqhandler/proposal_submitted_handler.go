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

type ProposalSubmittedHandler struct {
	repo    NotificationStore
	deduper Deduper
	logger  *zap.Logger
}

func NewProposalSubmittedHandler(repo NotificationStore, deduper Deduper, logger *zap.Logger) *ProposalSubmittedHandler {
	return &ProposalSubmittedHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the project's company about a new proposal.
func (h *ProposalSubmittedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p events.ProposalSubmittedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal proposal submitted payload", zap.Error(err))
		return err
	}

	if !h.deduper.SetNX(ctx, dedupKey("proposal_submitted", p.ProposalID), dedupTTL) {
		h.logger.Info("Duplicate proposal submitted event skipped",
			zap.Int("proposal_id", p.ProposalID),
		)
		return nil
	}

	notif := &model.Notification{
		UserID:  p.CompanyUserID,
		Type:    "proposal_submitted",
		Content: fmt.Sprintf("New proposal received on project %q", p.ProjectTitle),
	}
	if err := h.repo.Insert(ctx, notif); err != nil {
		h.logger.Error("Failed to insert notification",
			zap.Int("proposal_id", p.ProposalID),
			zap.Int("user_id", p.CompanyUserID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementNotification("proposal_submitted")
	return nil
}
