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

// ProposalDecidedHandler serves both the accepted and the rejected
// routing keys; the payload carries the outcome.
type ProposalDecidedHandler struct {
	repo    NotificationStore
	deduper Deduper
	logger  *zap.Logger
}

func NewProposalDecidedHandler(repo NotificationStore, deduper Deduper, logger *zap.Logger) *ProposalDecidedHandler {
	return &ProposalDecidedHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle notifies the freelancer about the decision on their proposal.
func (h *ProposalDecidedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p events.ProposalDecidedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal proposal decided payload", zap.Error(err))
		return err
	}

	if !h.deduper.SetNX(ctx, dedupKey("proposal_"+p.Status, p.ProposalID), dedupTTL) {
		return nil
	}

	var content string
	switch p.Status {
	case model.ProposalStatusAccepted:
		content = fmt.Sprintf("Your proposal on project %q was accepted", p.ProjectTitle)
	default:
		content = fmt.Sprintf("Your proposal on project %q was rejected", p.ProjectTitle)
	}

	notif := &model.Notification{
		UserID:  p.FreelancerID,
		Type:    "proposal_" + p.Status,
		Content: content,
	}
	if err := h.repo.Insert(ctx, notif); err != nil {
		h.logger.Error("Failed to insert notification",
			zap.Int("proposal_id", p.ProposalID),
			zap.Int("user_id", p.FreelancerID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementNotification("proposal_" + p.Status)
	return nil
}
