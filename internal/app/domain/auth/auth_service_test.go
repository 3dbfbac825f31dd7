package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) GetOrCreateByIdentity(ctx context.Context, identity *Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// stubProvider fakes the OIDC exchange.
type stubProvider struct {
	identity *Identity
	err      error
}

func (p *stubProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *stubProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-access-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			Issuer:          "test-issuer",
			Audience:        "test-audience",
		},
	}
}

func TestLoginWithPassword(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		ctx := context.Background()
		email := "admin@example.com"
		password := "password123"
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		assert.NoError(t, err)
		hash := string(hashed)

		user := &models.User{
			ID:           uuid.New(),
			Email:        email,
			Role:         models.RoleAdmin,
			IsRegistered: true,
			PasswordHash: &hash,
		}

		mockRepo.On("GetUserByEmail", ctx, email).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID.String(), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		gotUser, accessToken, refreshToken, err := service.LoginWithPassword(ctx, email, password)

		assert.NoError(t, err)
		assert.Equal(t, user.ID, gotUser.ID)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)

		// The minted token must carry the role and registration flags the gate relies on.
		claims, err := middleware.ValidateSessionToken(accessToken, cfg.JWT.SecretKey)
		assert.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claims.Role)
		assert.True(t, claims.IsRegistered)

		mockRepo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		ctx := context.Background()
		mockRepo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, models.ErrNotFound).Once()

		_, accessToken, refreshToken, err := service.LoginWithPassword(ctx, "nobody@example.com", "password123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		assert.Empty(t, accessToken)
		assert.Empty(t, refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		ctx := context.Background()
		hashed, err := bcrypt.GenerateFromPassword([]byte("correctpassword"), bcrypt.DefaultCost)
		assert.NoError(t, err)
		hash := string(hashed)

		user := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, PasswordHash: &hash}
		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()

		_, _, _, err = service.LoginWithPassword(ctx, user.Email, "wrongpassword")

		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NoLocalCredential", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		ctx := context.Background()
		user := &models.User{ID: uuid.New(), Email: "oauth-only@example.com", Role: models.RoleUsuario}
		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()

		_, _, _, err := service.LoginWithPassword(ctx, user.Email, "whatever")

		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}

func TestHandleCallback(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()
	ctx := context.Background()

	t.Run("LazyCreateOnFirstLogin", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		identity := &Identity{ProviderUserID: "google-sub", Email: "founder@example.com", Nombre: "Founder", EmailVerified: true}
		service := NewAuthService(mockRepo, &stubProvider{identity: identity}, cfg, logger)

		user := &models.User{ID: uuid.New(), Email: identity.Email, Role: models.RoleUsuario, IsRegistered: false}
		mockRepo.On("GetOrCreateByIdentity", ctx, identity).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID.String(), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		gotUser, accessToken, _, err := service.HandleCallback(ctx, "auth-code", "verifier")

		assert.NoError(t, err)
		assert.Equal(t, user.Email, gotUser.Email)

		claims, err := middleware.ValidateSessionToken(accessToken, cfg.JWT.SecretKey)
		assert.NoError(t, err)
		assert.False(t, claims.IsRegistered)
		assert.Equal(t, models.RoleUsuario, claims.Role)

		mockRepo.AssertExpectations(t)
	})

	t.Run("ProviderFailureIsUpstream", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{err: errors.New("exchange blew up")}, cfg, logger)

		_, _, _, err := service.HandleCallback(ctx, "auth-code", "verifier")

		assert.ErrorIs(t, err, models.ErrUpstream)
		mockRepo.AssertNotCalled(t, "GetOrCreateByIdentity")
	})

	t.Run("UnverifiedEmailRejected", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		identity := &Identity{ProviderUserID: "google-sub", Email: "founder@example.com", EmailVerified: false}
		service := NewAuthService(mockRepo, &stubProvider{identity: identity}, cfg, logger)

		_, _, _, err := service.HandleCallback(ctx, "auth-code", "verifier")

		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "GetOrCreateByIdentity")
	})
}

func TestRefreshSession(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()
	ctx := context.Background()

	t.Run("RotatesToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		user := &models.User{ID: uuid.New(), Email: "user@example.com", Role: models.RoleUsuario, IsRegistered: true}
		oldToken := "old-refresh-token"

		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, oldToken).Return(user.ID.String(), nil).Once()
		mockRepo.On("GetUserByID", ctx, user.ID.String()).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID.String(), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
		mockRepo.On("InvalidateRefreshToken", ctx, oldToken).Return(nil).Once()

		accessToken, newRefreshToken, err := service.RefreshSession(ctx, oldToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, newRefreshToken)
		assert.NotEqual(t, oldToken, newRefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, &stubProvider{}, cfg, logger)

		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, "bogus").Return("", models.ErrUnauthenticated).Once()

		_, _, err := service.RefreshSession(ctx, "bogus")

		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}

func TestLogout(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockAuthRepo)
	service := NewAuthService(mockRepo, &stubProvider{}, testConfig(), logger)
	ctx := context.Background()

	mockRepo.On("InvalidateRefreshToken", ctx, "refresh-token").Return(nil).Once()

	assert.NoError(t, service.Logout(ctx, "refresh-token"))
	mockRepo.AssertExpectations(t)
}
