package startup

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

type MockStartupRepo struct {
	mock.Mock
}

func (m *MockStartupRepo) Create(ctx context.Context, startup *models.Startup) (*models.Startup, error) {
	args := m.Called(ctx, startup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Startup), args.Error(1)
}

func (m *MockStartupRepo) GetByID(ctx context.Context, startupID string) (*models.Startup, error) {
	args := m.Called(ctx, startupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Startup), args.Error(1)
}

func (m *MockStartupRepo) GetByOwner(ctx context.Context, ownerID string) ([]models.Startup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Startup), args.Error(1)
}

func (m *MockStartupRepo) Update(ctx context.Context, startup *models.Startup) (*models.Startup, error) {
	args := m.Called(ctx, startup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Startup), args.Error(1)
}

func (m *MockStartupRepo) List(ctx context.Context, sector, nameQuery string, limit, offset uint64) ([]models.Startup, error) {
	args := m.Called(ctx, sector, nameQuery, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Startup), args.Error(1)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kawsáy Labs", "kawsay labs"},
		{"  KAWSAY   LABS  ", "kawsay labs"},
		{"Ñandú Tech", "nandu tech"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestRegister(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		ownerID := uuid.New()
		created := &models.Startup{ID: uuid.New(), OwnerID: ownerID, Nombre: "Kawsáy Labs"}

		mockRepo.On("Create", ctx, mock.MatchedBy(func(s *models.Startup) bool {
			return s.OwnerID == ownerID && s.NombreNormalizado == "kawsay labs"
		})).Return(created, nil).Once()

		got, err := service.Register(ctx, ownerID.String(), RegisterStartupInput{Nombre: "Kawsáy Labs", Sector: "agrotech"})

		assert.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingSector", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		_, err := service.Register(ctx, uuid.NewString(), RegisterStartupInput{Nombre: "Kawsáy Labs"})

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("DuplicateNameConflicts", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		mockRepo.On("Create", ctx, mock.Anything).Return(nil, models.ErrConflict).Once()

		_, err := service.Register(ctx, uuid.NewString(), RegisterStartupInput{Nombre: "Kawsay Labs", Sector: "agrotech"})

		assert.ErrorIs(t, err, models.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestGetStartup(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ownerID := uuid.New()
	startup := &models.Startup{ID: uuid.New(), OwnerID: ownerID, Nombre: "Kawsay Labs"}

	t.Run("OwnerCanRead", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		mockRepo.On("GetByID", ctx, startup.ID.String()).Return(startup, nil).Once()

		claims := &models.Claims{UserID: ownerID.String(), Role: models.RoleUsuario, IsRegistered: true}
		got, err := service.GetStartup(ctx, startup.ID.String(), claims)

		assert.NoError(t, err)
		assert.Equal(t, startup.ID, got.ID)
	})

	t.Run("StrangerIsForbidden", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		mockRepo.On("GetByID", ctx, startup.ID.String()).Return(startup, nil).Once()

		claims := &models.Claims{UserID: uuid.NewString(), Role: models.RoleUsuario, IsRegistered: true}
		_, err := service.GetStartup(ctx, startup.ID.String(), claims)

		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("AdminCanReadAny", func(t *testing.T) {
		mockRepo := new(MockStartupRepo)
		service := NewStartupService(mockRepo, logger)

		mockRepo.On("GetByID", ctx, startup.ID.String()).Return(startup, nil).Once()

		claims := &models.Claims{UserID: uuid.NewString(), Role: models.RoleAdmin, IsRegistered: true}
		_, err := service.GetStartup(ctx, startup.ID.String(), claims)

		assert.NoError(t, err)
	})
}
