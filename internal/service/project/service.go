package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/pkg/rbac"
)

const (
	defaultListLimit = 200
	cacheTTL         = 5 * time.Minute
)

type Store interface {
	Insert(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id int) (*model.Project, error)
	List(ctx context.Context, f repository.ProjectFilter) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id int) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	projects Store
	cache    Cache
	logger   *zap.Logger
}

func NewService(projects Store, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		projects: projects,
		cache:    cache,
		logger:   logger,
	}
}

func CacheKey(id int) string {
	return fmt.Sprintf("project:%d", id)
}

type CreateInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Budget         float64    `json:"budget"`
	Deadline       *time.Time `json:"deadline"`
	RequiredSkills []string   `json:"required_skills"`
}

func validateProjectInput(in CreateInput) error {
	v := apperr.NewValidation()
	if len(strings.TrimSpace(in.Title)) < 5 {
		v.Add("title", "must be at least 5 characters")
	}
	if len(strings.TrimSpace(in.Description)) < 20 {
		v.Add("description", "must be at least 20 characters")
	}
	if in.Budget <= 0 {
		v.Add("budget", "must be greater than zero")
	}
	if len(in.RequiredSkills) == 0 {
		v.Add("required_skills", "must not be empty")
	}
	return v.Err()
}

// Create posts a new open project owned by the calling company.
func (s *Service) Create(ctx context.Context, ident model.Identity, in CreateInput) (*model.Project, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProjectCreate); err != nil {
		return nil, apperr.Forbidden("only companies may post projects")
	}
	if err := validateProjectInput(in); err != nil {
		return nil, err
	}

	p := &model.Project{
		CompanyID:      ident.UserID,
		Title:          in.Title,
		Description:    in.Description,
		Budget:         in.Budget,
		Deadline:       in.Deadline,
		RequiredSkills: in.RequiredSkills,
		Status:         model.ProjectStatusOpen,
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Get reads a project through the redis cache.
func (s *Service) Get(ctx context.Context, id int) (*model.Project, error) {
	if id <= 0 {
		return nil, apperr.NewValidation().Add("id", "must be a positive integer")
	}

	key := CacheKey(id)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var p model.Project
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, apperr.Internal(err)
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, string(data), cacheTTL); err != nil {
			s.logger.Warn("Failed to cache project", zap.Int("id", id), zap.Error(err))
		}
	}
	return p, nil
}

type ListInput struct {
	Status string
	Skill  string
	Limit  int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]model.Project, error) {
	if in.Status != "" {
		switch in.Status {
		case model.ProjectStatusOpen, model.ProjectStatusInProgress,
			model.ProjectStatusCompleted, model.ProjectStatusCancelled:
		default:
			return nil, apperr.NewValidation().Add("status", "unknown project status")
		}
	}

	limit := in.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	projects, err := s.projects.List(ctx, repository.ProjectFilter{
		Status: in.Status,
		Skill:  in.Skill,
		Limit:  limit,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

// Update edits a still-open project. Only the owner or an admin may edit.
func (s *Service) Update(ctx context.Context, ident model.Identity, id int, in CreateInput) (*model.Project, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProjectUpdate); err != nil {
		return nil, apperr.Forbidden("only companies may edit projects")
	}
	if err := validateProjectInput(in); err != nil {
		return nil, err
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, apperr.Internal(err)
	}
	if ident.Role != rbac.RoleAdmin && p.CompanyID != ident.UserID {
		return nil, apperr.Forbidden("project belongs to another company")
	}

	p.Title = in.Title
	p.Description = in.Description
	p.Budget = in.Budget
	p.Deadline = in.Deadline
	p.RequiredSkills = in.RequiredSkills

	if err := s.projects.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrProjectNotOpen) {
			return nil, apperr.Conflict("project no longer open for edits")
		}
		return nil, apperr.Internal(err)
	}

	if err := s.cache.Del(ctx, CacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate project cache", zap.Int("id", id), zap.Error(err))
	}
	return p, nil
}

// Delete removes a project. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, ident model.Identity, id int) error {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionProjectDelete); err != nil {
		return apperr.Forbidden("only companies may delete projects")
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("project")
		}
		return apperr.Internal(err)
	}
	if ident.Role != rbac.RoleAdmin && p.CompanyID != ident.UserID {
		return apperr.Forbidden("project belongs to another company")
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("project")
		}
		return apperr.Internal(err)
	}

	if err := s.cache.Del(ctx, CacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate project cache", zap.Int("id", id), zap.Error(err))
	}
	return nil
}
