package review

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/events"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/pkg/rbac"
)

const defaultListLimit = 200

type ContractStore interface {
	GetByID(ctx context.Context, id int) (*model.Contract, error)
}

type Store interface {
	Insert(ctx context.Context, rv *model.Review) error
	GetByID(ctx context.Context, id int) (*model.Review, error)
	ListForUser(ctx context.Context, reviewedID, limit int) ([]model.Review, error)
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	contracts ContractStore
	reviews   Store
	publisher Publisher
	logger    *zap.Logger
}

func NewService(contracts ContractStore, reviews Store, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		contracts: contracts,
		reviews:   reviews,
		publisher: publisher,
		logger:    logger,
	}
}

type SubmitInput struct {
	ContractID int    `json:"contract_id"`
	ReviewedID int    `json:"reviewed_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// Submit persists a review once the contract is completed. The
// reviewer must be a contract party and the reviewed user must be the
// other party.
func (s *Service) Submit(ctx context.Context, ident model.Identity, in SubmitInput) (*model.Review, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionReviewSubmit); err != nil {
		return nil, apperr.Forbidden("caller may not submit reviews")
	}

	v := apperr.NewValidation()
	if in.ContractID <= 0 {
		v.Add("contract_id", "must be a positive integer")
	}
	if in.ReviewedID <= 0 {
		v.Add("reviewed_id", "must be a positive integer")
	}
	if in.Rating < 1 || in.Rating > 5 {
		v.Add("rating", "must be between 1 and 5")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	c, err := s.contracts.GetByID(ctx, in.ContractID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("contract")
		}
		return nil, apperr.Internal(err)
	}
	if !c.IsCompleted {
		return nil, apperr.NotFound("contract")
	}

	if ident.UserID != c.CompanyID && ident.UserID != c.FreelancerID {
		return nil, apperr.Forbidden("caller is not a party to this contract")
	}

	other := c.CompanyID
	if ident.UserID == c.CompanyID {
		other = c.FreelancerID
	}
	if in.ReviewedID != other {
		return nil, apperr.NewValidation().Add("reviewed_id", "must be the other contract party")
	}

	rv := &model.Review{
		ContractID: in.ContractID,
		ReviewerID: ident.UserID,
		ReviewedID: in.ReviewedID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.reviews.Insert(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("contract already reviewed by this user")
		}
		return nil, apperr.Internal(err)
	}

	detail, err := s.reviews.GetByID(ctx, rv.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.publisher.Publish(events.ReviewCreated, events.ReviewCreatedPayload{
		ReviewID:   detail.ID,
		ContractID: detail.ContractID,
		ReviewerID: detail.ReviewerID,
		ReviewedID: detail.ReviewedID,
		Rating:     detail.Rating,
	}); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", events.ReviewCreated),
			zap.Error(err),
		)
	}
	return detail, nil
}

// ListForUser returns reviews received by a user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID, limit int) ([]model.Review, error) {
	if userID <= 0 {
		return nil, apperr.NewValidation().Add("user_id", "must be a positive integer")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	reviews, err := s.reviews.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return reviews, nil
}
