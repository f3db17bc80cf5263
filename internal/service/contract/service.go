package contract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/events"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/internal/service/project"
	"freework/pkg/metrics"
	"freework/pkg/rbac"
)

const defaultListLimit = 200

type Store interface {
	GetByID(ctx context.Context, id int) (*model.Contract, error)
	ListByParty(ctx context.Context, userID, limit int) ([]model.Contract, error)
	Complete(ctx context.Context, id int) error
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Cache interface {
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	contracts Store
	publisher Publisher
	cache     Cache
	logger    *zap.Logger
}

func NewService(contracts Store, publisher Publisher, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		contracts: contracts,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// Get returns a contract visible to one of its parties or an admin.
func (s *Service) Get(ctx context.Context, ident model.Identity, id int) (*model.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("contract")
		}
		return nil, apperr.Internal(err)
	}
	if ident.Role != rbac.RoleAdmin && c.CompanyID != ident.UserID && c.FreelancerID != ident.UserID {
		return nil, apperr.NotFound("contract")
	}
	return c, nil
}

// List returns the caller's contracts, newest first.
func (s *Service) List(ctx context.Context, ident model.Identity, limit int) ([]model.Contract, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	contracts, err := s.contracts.ListByParty(ctx, ident.UserID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return contracts, nil
}

// Complete is the freelancer-initiated completion flow.
func (s *Service) Complete(ctx context.Context, ident model.Identity, id int) (*model.Contract, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionContractComplete); err != nil {
		return nil, apperr.Forbidden("only the contracted freelancer may complete this contract")
	}
	return s.complete(ctx, ident, id, false)
}

// CompleteByCompany is the company-initiated completion flow.
func (s *Service) CompleteByCompany(ctx context.Context, ident model.Identity, id int) (*model.Contract, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionContractCompanyComplete); err != nil {
		return nil, apperr.Forbidden("only the owning company may complete this contract")
	}
	return s.complete(ctx, ident, id, true)
}

func (s *Service) complete(ctx context.Context, ident model.Identity, id int, companyFlow bool) (*model.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("contract")
		}
		return nil, apperr.Internal(err)
	}

	if ident.Role != rbac.RoleAdmin {
		if companyFlow && c.CompanyID != ident.UserID {
			return nil, apperr.Forbidden("contract belongs to another company")
		}
		if !companyFlow && c.FreelancerID != ident.UserID {
			return nil, apperr.Forbidden("contract belongs to another freelancer")
		}
	}

	if c.IsCompleted {
		metrics.IncrementContractCompletion("conflict")
		return nil, apperr.Conflict("contract already completed")
	}

	if err := s.contracts.Complete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyCompleted):
			metrics.IncrementContractCompletion("conflict")
			return nil, apperr.Conflict("contract already completed")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("contract")
		default:
			metrics.IncrementContractCompletion("error")
			return nil, apperr.Internal(err)
		}
	}
	metrics.IncrementContractCompletion("success")

	if err := s.cache.Del(ctx, project.CacheKey(c.ProjectID)); err != nil {
		s.logger.Warn("Failed to invalidate project cache",
			zap.Int("project_id", c.ProjectID),
			zap.Error(err),
		)
	}

	if err := s.publisher.Publish(events.ContractCompleted, events.ContractCompletedPayload{
		ContractID:    c.ID,
		ProjectID:     c.ProjectID,
		ProjectTitle:  c.ProjectTitle,
		CompanyUserID: c.CompanyID,
		FreelancerID:  c.FreelancerID,
	}); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", events.ContractCompleted),
			zap.Error(err),
		)
	}

	updated, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updated, nil
}
