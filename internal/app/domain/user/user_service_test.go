package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) CompleteProfile(ctx context.Context, userID string, nombre string, telefono, linkedinURL *string, policyAccepted bool) (*models.User, error) {
	args := m.Called(ctx, userID, nombre, telefono, linkedinURL, policyAccepted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, role, emailQuery string, limit, offset uint64) ([]models.User, error) {
	args := m.Called(ctx, role, emailQuery, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepo) UpdateRole(ctx context.Context, userID string, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func TestCompleteProfile(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		userID := uuid.NewString()
		updated := &models.User{Email: "founder@example.com", Nombre: "Ana", IsRegistered: true, PolicyAccepted: true, Role: models.RoleUsuario}
		mockRepo.On("CompleteProfile", ctx, userID, "Ana", (*string)(nil), (*string)(nil), true).Return(updated, nil).Once()

		user, err := service.CompleteProfile(ctx, userID, CompleteProfileInput{Nombre: "Ana", PolicyAccepted: true})

		assert.NoError(t, err)
		assert.True(t, user.IsRegistered)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingNombre", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		_, err := service.CompleteProfile(ctx, uuid.NewString(), CompleteProfileInput{PolicyAccepted: true})

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "CompleteProfile")
	})

	t.Run("PolicyNotAccepted", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		_, err := service.CompleteProfile(ctx, uuid.NewString(), CompleteProfileInput{Nombre: "Ana"})

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "CompleteProfile")
	})
}

func TestChangeRole(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		userID := uuid.NewString()
		mockRepo.On("UpdateRole", ctx, userID, models.RoleAdmin).Return(nil).Once()

		assert.NoError(t, service.ChangeRole(ctx, userID, models.RoleAdmin))
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		err := service.ChangeRole(ctx, uuid.NewString(), models.Role("superuser"))

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "UpdateRole")
	})
}

func TestListUsers(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("DefaultsLimit", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		mockRepo.On("List", ctx, "", "", uint64(50), uint64(0)).Return([]models.User{}, nil).Once()

		_, err := service.ListUsers(ctx, "", "", 0, 0)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RejectsUnknownRoleFilter", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		_, err := service.ListUsers(ctx, "owner", "", 10, 0)

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "List")
	})
}
