package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

type ProjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Project, error)
}

type Store interface {
	Insert(ctx context.Context, p *model.Proposal) error
	GetByID(ctx context.Context, id int) (*model.Proposal, error)
	FindByProjectAndFreelancer(ctx context.Context, projectID, freelancerID int) (*model.Proposal, error)
	List(ctx context.Context, f repository.ProposalFilter) ([]model.Proposal, error)
	Reject(ctx context.Context, id int) error
	Accept(ctx context.Context, id int, terms string) (int, error)
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Cache interface {
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	projects  ProjectStore
	proposals Store
	publisher Publisher
	cache     Cache
	logger    *zap.Logger
}

func NewService(projects ProjectStore, proposals Store, publisher Publisher, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		projects:  projects,
		proposals: proposals,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

type SubmitInput struct {
	ProjectID         int     `json:"project_id"`
	Message           string  `json:"message"`
	ProposedBudget    float64 `json:"proposed_budget"`
	EstimatedDuration *string `json:"estimated_duration"`
}

// Submit persists a pending proposal for the calling freelancer.
func (s *Service) Submit(ctx context.Context, ident model.Identity, in SubmitInput) (*model.Proposal, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProposalSubmit); err != nil {
		return nil, apperr.Forbidden("only freelancers may submit proposals")
	}

	v := apperr.NewValidation()
	if in.ProjectID <= 0 {
		v.Add("project_id", "must be a positive integer")
	}
	if len(strings.TrimSpace(in.Message)) < 10 {
		v.Add("message", "must be at least 10 characters")
	}
	if in.ProposedBudget <= 0 {
		v.Add("proposed_budget", "must be greater than zero")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	proj, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, apperr.Internal(err)
	}
	if proj.Status != model.ProjectStatusOpen {
		return nil, apperr.NotFound("project")
	}

	existing, err := s.proposals.FindByProjectAndFreelancer(ctx, in.ProjectID, ident.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("proposal already submitted for this project")
	}

	p := &model.Proposal{
		ProjectID:         in.ProjectID,
		FreelancerID:      ident.UserID,
		Message:           in.Message,
		ProposedBudget:    in.ProposedBudget,
		EstimatedDuration: in.EstimatedDuration,
	}
	if err := s.proposals.Insert(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("proposal already submitted for this project")
		}
		return nil, apperr.Internal(err)
	}

	detail, err := s.proposals.GetByID(ctx, p.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.publish(events.ProposalSubmitted, events.ProposalSubmittedPayload{
		ProposalID:    detail.ID,
		ProjectID:     proj.ID,
		ProjectTitle:  proj.Title,
		CompanyUserID: proj.CompanyID,
		FreelancerID:  ident.UserID,
		SubmittedAt:   time.Now(),
	})
	return detail, nil
}

type ListInput struct {
	ProjectID int
	Status    string
	Limit     int
}

// List returns proposals visible to the caller, newest first. The
// visibility scope is derived from the identity and cannot be widened
// by the filter parameters.
func (s *Service) List(ctx context.Context, ident model.Identity, in ListInput) ([]model.Proposal, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProposalList); err != nil {
		return nil, apperr.Forbidden("caller may not list proposals")
	}

	if in.Status != "" {
		switch in.Status {
		case model.ProposalStatusPending, model.ProposalStatusAccepted, model.ProposalStatusRejected:
		default:
			return nil, apperr.NewValidation().Add("status", "unknown proposal status")
		}
	}

	limit := in.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	f := repository.ProposalFilter{
		ProjectID: in.ProjectID,
		Status:    in.Status,
		Limit:     limit,
	}
	switch ident.Role {
	case rbac.RoleFreelancer:
		f.FreelancerID = ident.UserID
	case rbac.RoleCompany:
		f.CompanyID = ident.UserID
	case rbac.RoleAdmin:
		// Unscoped.
	default:
		return nil, apperr.Forbidden("caller may not list proposals")
	}

	proposals, err := s.proposals.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return proposals, nil
}

// Transition moves a pending proposal to accepted or rejected.
// Acceptance cascades: every other pending proposal on the project is
// rejected, the project is assigned and moves to in_progress, and a
// contract is created — all in one transaction behind Store.Accept.
func (s *Service) Transition(ctx context.Context, ident model.Identity, proposalID int, target string) (*model.Proposal, string, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProposalTransition); err != nil {
		return nil, "", apperr.Forbidden("only the owning company may decide proposals")
	}

	if target != model.ProposalStatusAccepted && target != model.ProposalStatusRejected {
		return nil, "", apperr.NewValidation().Add("status", "must be accepted or rejected")
	}

	prop, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.NotFound("proposal")
		}
		return nil, "", apperr.Internal(err)
	}

	proj, err := s.projects.GetByID(ctx, prop.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.NotFound("project")
		}
		return nil, "", apperr.Internal(err)
	}

	if ident.Role != rbac.RoleAdmin && proj.CompanyID != ident.UserID {
		return nil, "", apperr.Forbidden("proposal belongs to another company's project")
	}

	// Friendly precondition checks; the transaction's conditional
	// update is what actually decides a race.
	if proj.Status != model.ProjectStatusOpen {
		metrics.IncrementProposalTransition(target, "conflict")
		return nil, "", apperr.Conflict("project no longer open for proposals")
	}
	if prop.Status != model.ProposalStatusPending {
		metrics.IncrementProposalTransition(target, "conflict")
		return nil, "", apperr.Conflict("proposal already decided")
	}

	var message string
	switch target {
	case model.ProposalStatusRejected:
		if err := s.proposals.Reject(ctx, proposalID); err != nil {
			if errors.Is(err, repository.ErrProposalNotPending) {
				metrics.IncrementProposalTransition(target, "conflict")
				return nil, "", apperr.Conflict("proposal already decided")
			}
			metrics.IncrementProposalTransition(target, "error")
			return nil, "", apperr.Internal(err)
		}
		message = "Proposal rejected."

		s.publish(events.ProposalRejected, events.ProposalDecidedPayload{
			ProposalID:   prop.ID,
			ProjectID:    proj.ID,
			ProjectTitle: proj.Title,
			FreelancerID: prop.FreelancerID,
			Status:       model.ProposalStatusRejected,
		})

	case model.ProposalStatusAccepted:
		contractID, err := s.proposals.Accept(ctx, proposalID, BuildTerms(prop))
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrProjectNotOpen):
				metrics.IncrementProposalTransition(target, "conflict")
				return nil, "", apperr.Conflict("project no longer open for proposals")
			case errors.Is(err, repository.ErrProposalNotPending):
				metrics.IncrementProposalTransition(target, "conflict")
				return nil, "", apperr.Conflict("proposal already decided")
			case errors.Is(err, repository.ErrNotFound):
				return nil, "", apperr.NotFound("proposal")
			default:
				metrics.IncrementProposalTransition(target, "error")
				return nil, "", apperr.Internal(err)
			}
		}
		message = fmt.Sprintf("Proposal accepted and contract #%d created.", contractID)

		if err := s.cache.Del(ctx, project.CacheKey(proj.ID)); err != nil {
			s.logger.Warn("Failed to invalidate project cache",
				zap.Int("project_id", proj.ID),
				zap.Error(err),
			)
		}

		s.publish(events.ProposalAccepted, events.ProposalDecidedPayload{
			ProposalID:   prop.ID,
			ProjectID:    proj.ID,
			ProjectTitle: proj.Title,
			FreelancerID: prop.FreelancerID,
			Status:       model.ProposalStatusAccepted,
		})
	}

	metrics.IncrementProposalTransition(target, "success")

	updated, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return updated, message, nil
}

// BuildTerms generates the contract terms summary from the accepted
// proposal.
func BuildTerms(p *model.Proposal) string {
	duration := "not specified"
	if p.EstimatedDuration != nil && strings.TrimSpace(*p.EstimatedDuration) != "" {
		duration = *p.EstimatedDuration
	}
	return fmt.Sprintf(
		"Freelancer will deliver the project %q for an agreed budget of %.2f. Estimated duration: %s.",
		p.ProjectTitle, p.ProposedBudget, duration,
	)
}

func (s *Service) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
