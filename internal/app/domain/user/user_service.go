package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ UserService = (*UserServiceImpl)(nil)

// CompleteProfileInput carries the fields required to finish registration.
type CompleteProfileInput struct {
	Nombre         string
	Telefono       *string
	LinkedinURL    *string
	PolicyAccepted bool
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	// CompleteProfile validates the registration fields and flips
	// is_registered; callers must re-issue the session token afterwards so
	// the gate sees the new flag.
	CompleteProfile(ctx context.Context, userID string, input CompleteProfileInput) (*models.User, error)
	ListUsers(ctx context.Context, role, emailQuery string, limit, offset uint64) ([]models.User, error)
	ChangeRole(ctx context.Context, userID string, role models.Role) error
}

type UserServiceImpl struct {
	logger *zap.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{logger: logger, repo: repo}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *UserServiceImpl) CompleteProfile(ctx context.Context, userID string, input CompleteProfileInput) (*models.User, error) {
	l := s.logger.With(zap.String("method", "CompleteProfile"), zap.String("user_id", userID))

	if input.Nombre == "" {
		return nil, fmt.Errorf("nombre is required: %w", models.ErrValidation)
	}
	// Registration is only complete once the data policy has been accepted.
	if !input.PolicyAccepted {
		return nil, fmt.Errorf("policy acceptance is required: %w", models.ErrValidation)
	}

	user, err := s.repo.CompleteProfile(ctx, userID, input.Nombre, input.Telefono, input.LinkedinURL, input.PolicyAccepted)
	if err != nil {
		l.Error("Profile completion failed", zap.Error(err))
		return nil, err
	}

	l.Info("Profile completed, user registered")
	return user, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, role, emailQuery string, limit, offset uint64) ([]models.User, error) {
	if role != "" {
		if _, err := models.ParseRole(role); err != nil {
			return nil, err
		}
	}
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, role, emailQuery, limit, offset)
}

func (s *UserServiceImpl) ChangeRole(ctx context.Context, userID string, role models.Role) error {
	l := s.logger.With(zap.String("method", "ChangeRole"), zap.String("user_id", userID))
	if _, err := models.ParseRole(string(role)); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		l.Error("Role change failed", zap.Error(err))
		return err
	}
	l.Info("Role changed", zap.String("role", string(role)))
	return nil
}
