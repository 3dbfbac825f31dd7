package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for sessions.
type AuthService interface {
	// LoginURL starts the federated flow: returns the provider URL for the
	// given state and PKCE challenge.
	LoginURL(state, codeChallenge string) string
	// HandleCallback completes the federated flow: exchanges the code,
	// resolves (lazily creating) the user and issues a token pair.
	HandleCallback(ctx context.Context, code, codeVerifier string) (*models.User, string, string, error)
	// LoginWithPassword authenticates a local credential account (bootstrap
	// admins) and issues a token pair.
	LoginWithPassword(ctx context.Context, email, password string) (*models.User, string, string, error)
	RefreshSession(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	// GenerateTokens mints the signed session token plus a rotating refresh
	// token for the user. Exposed so the user service can re-issue the
	// session after profile completion flips is_registered.
	GenerateTokens(ctx context.Context, user *models.User) (accessToken string, refreshToken string, err error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger   *zap.Logger
	repo     AuthRepo
	provider OIDCProvider
	cfg      *config.Config
}

func NewAuthService(repo AuthRepo, provider OIDCProvider, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, provider: provider, cfg: cfg}
}

func (s *AuthServiceImpl) LoginURL(state, codeChallenge string) string {
	if s.provider == nil {
		return ""
	}
	return s.provider.AuthCodeURL(state, codeChallenge)
}

// HandleCallback exchanges the authorization code, lazily creates the user on
// first login and issues a session. Provider failures surface as ErrUpstream
// so the gate and handlers treat them as retryable, never as an open door.
func (s *AuthServiceImpl) HandleCallback(ctx context.Context, code, codeVerifier string) (*models.User, string, string, error) {
	l := s.logger.With(zap.String("method", "HandleCallback"))
	l.Debug("Completing federated login")

	if s.provider == nil {
		return nil, "", "", fmt.Errorf("identity provider not configured: %w", models.ErrUpstream)
	}

	identity, err := s.provider.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		l.Warn("OIDC code exchange failed", zap.Error(err))
		return nil, "", "", fmt.Errorf("identity provider error: %w", models.ErrUpstream)
	}
	if !identity.EmailVerified {
		l.Warn("Identity email not verified", zap.String("email", identity.Email))
		return nil, "", "", fmt.Errorf("email not verified by provider: %w", models.ErrUnauthenticated)
	}

	user, err := s.repo.GetOrCreateByIdentity(ctx, identity)
	if err != nil {
		l.Error("Failed to resolve user for identity", zap.Error(err))
		return nil, "", "", fmt.Errorf("resolving user: %w", err)
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	l.Info("Federated login successful", zap.String("user_id", user.ID.String()))
	return user, accessToken, refreshToken, nil
}

// LoginWithPassword validates local credentials, generates tokens, stores the
// refresh token. Only bootstrap admin accounts carry a password hash.
func (s *AuthServiceImpl) LoginWithPassword(ctx context.Context, email, password string) (*models.User, string, string, error) {
	l := s.logger.With(zap.String("method", "LoginWithPassword"), zap.String("email", email))
	l.Debug("Attempting password login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal whether the user exists or the password is wrong
		return nil, "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}
	if user.PasswordHash == nil {
		l.Warn("Account has no local credential", zap.String("user_id", user.ID.String()))
		return nil, "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("user_id", user.ID.String()))
		return nil, "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	l.Info("Password login successful")
	return user, accessToken, refreshToken, nil
}

// RefreshSession validates the refresh token, generates new tokens and rotates
// the refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID), zap.Error(err))
		if invErr := s.repo.InvalidateRefreshToken(ctx, refreshToken); invErr != nil {
			l.Warn("Failed to invalidate suspicious refresh token", zap.Error(invErr))
		}
		return "", "", fmt.Errorf("retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	newAccessToken, newRefreshToken, err := s.issueSession(ctx, user)
	if err != nil {
		return "", "", err
	}

	// Rotation: the old token dies once the new one is stored.
	if err = s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", user.ID.String()), zap.Error(err))
		return "", "", fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("user_id", user.ID.String()))
	return newAccessToken, newRefreshToken, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	err := s.repo.InvalidateRefreshToken(ctx, refreshToken)
	if err != nil {
		l.Error("Failed to invalidate refresh token", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	l.Info("Logout successful (token invalidated)")
	return nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) GenerateTokens(ctx context.Context, user *models.User) (string, string, error) {
	return s.issueSession(ctx, user)
}

// issueSession mints the access token and stores a fresh refresh token.
func (s *AuthServiceImpl) issueSession(ctx context.Context, user *models.User) (string, string, error) {
	l := s.logger.With(zap.String("method", "issueSession"), zap.String("user_id", user.ID.String()))

	now := time.Now()
	claims := &models.Claims{
		UserID:         user.ID.String(),
		Email:          user.Email,
		Role:           user.Role,
		IsRegistered:   user.IsRegistered,
		PolicyAccepted: user.PolicyAccepted,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.getAccessTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
			Issuer:    s.getIssuer(),
			Audience:  jwt.ClaimStrings{s.getAudience()},
		},
	}

	accessJWT := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := accessJWT.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		l.Error("Failed to sign access token", zap.Error(err))
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	// Refresh token is an opaque UUID stored server-side.
	refreshToken := uuid.NewString()
	refreshExpiresAt := now.Add(s.getRefreshTTL())
	if err = s.repo.StoreRefreshToken(ctx, user.ID.String(), refreshToken, refreshExpiresAt); err != nil {
		l.Error("Failed to store refresh token", zap.Error(err))
		return "", "", fmt.Errorf("storing session: %w", err)
	}

	return accessToken, refreshToken, nil
}

// --- Internal helpers for config with defaults ---

func (s *AuthServiceImpl) getAccessTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.AccessTokenTTL > 0 {
		return s.cfg.JWT.AccessTokenTTL
	}
	s.logger.Warn("JWT AccessTokenTTL not configured, using default 24h")
	return 24 * time.Hour
}

func (s *AuthServiceImpl) getRefreshTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.RefreshTokenTTL > 0 {
		return s.cfg.JWT.RefreshTokenTTL
	}
	s.logger.Warn("JWT RefreshTokenTTL not configured, using default 7d")
	return 7 * 24 * time.Hour
}

func (s *AuthServiceImpl) getIssuer() string {
	if s.cfg != nil && s.cfg.JWT.Issuer != "" {
		return s.cfg.JWT.Issuer
	}
	return "convoca"
}

func (s *AuthServiceImpl) getAudience() string {
	if s.cfg != nil && s.cfg.JWT.Audience != "" {
		return s.cfg.JWT.Audience
	}
	return "convoca-app"
}
