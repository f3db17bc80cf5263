package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/internal/util"
	"freework/pkg/rbac"
)

// ErrInvalidCredentials is returned on any login failure so callers
// cannot probe which emails exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserStore interface {
	Insert(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
}

type CompanyStore interface {
	Insert(ctx context.Context, c *model.Company) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Service struct {
	users     UserStore
	companies CompanyStore
	cache     Cache
	jwtSecret string
	logger    *zap.Logger
}

func NewService(users UserStore, companies CompanyStore, cache Cache, jwtSecret string, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		companies: companies,
		cache:     cache,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type RegisterInput struct {
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	FullName           string   `json:"full_name"`
	Role               string   `json:"role"`
	Skills             []string `json:"skills"`
	CompanyName        string   `json:"company_name"`
	CompanyDescription string   `json:"company_description"`
	CompanyWebsite     string   `json:"company_website"`
}

// Register creates a user, plus the company profile for company accounts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	v := apperr.NewValidation()
	if !strings.Contains(in.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if len(in.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(in.FullName) == "" {
		v.Add("full_name", "must not be empty")
	}
	if in.Role != rbac.RoleCompany && in.Role != rbac.RoleFreelancer {
		v.Add("role", "must be company or freelancer")
	}
	if in.Role == rbac.RoleCompany && strings.TrimSpace(in.CompanyName) == "" {
		v.Add("company_name", "must not be empty")
	}
	if err := v.Err(); err != nil {
		return nil, "", err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.Internal(err)
	}
	if existing != nil {
		return nil, "", apperr.Conflict("email already registered")
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	u := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		Skills:       in.Skills,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", apperr.Internal(err)
	}

	if in.Role == rbac.RoleCompany {
		company := &model.Company{
			UserID:      u.ID,
			Name:        in.CompanyName,
			Description: in.CompanyDescription,
			Website:     in.CompanyWebsite,
		}
		if err := s.companies.Insert(ctx, company); err != nil {
			s.logger.Error("Failed to create company profile",
				zap.Int("user_id", u.ID),
				zap.Error(err),
			)
			return nil, "", apperr.Internal(err)
		}
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	s.logger.Info("User registered",
		zap.Int("user_id", u.ID),
		zap.String("role", u.Role),
	)
	return u, token, nil
}

// Login checks user credentials and returns a JWT.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	return u, token, nil
}

// ResolveRole returns the authoritative role for a user id. The role
// never comes from the request; it is read from the users table with a
// short-lived redis cache in front.
func (s *Service) ResolveRole(ctx context.Context, userID int) (string, error) {
	key := fmt.Sprintf("user:role:%d", userID)

	if role, err := s.cache.Get(ctx, key); err == nil && role != "" {
		return role, nil
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key, u.Role, 10*time.Minute); err != nil {
		s.logger.Warn("Failed to cache user role", zap.Int("user_id", userID), zap.Error(err))
	}
	return u.Role, nil
}
