package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/app/observability/metrics"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

const (
	sessionCookieName = "auth_token"
	refreshCookieName = "refresh_token"
	stateSessionKey   = "oauth_state"
	pkceSessionKey    = "oauth_verifier"
	postLoginRedirect = "/auth-redirect"
)

type PasswordLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandlers struct {
	authService AuthService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAuthHandlers(authService AuthService, cfg *config.Config, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cfg:         cfg,
		logger:      logger,
	}
}

// StartLogin begins the federated flow: state + PKCE land in the cookie
// session, the client is sent to the provider.
func (h *AuthHandlers) StartLogin(c *gin.Context) {
	state := randomToken()
	verifier := randomToken()
	challenge := pkceChallenge(verifier)

	session := sessions.Default(c)
	session.Set(stateSessionKey, state)
	session.Set(pkceSessionKey, verifier)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to persist oauth session", zap.Error(err))
		models.RespondError(c, h.logger, models.ErrInternal)
		return
	}

	loginURL := h.authService.LoginURL(state, challenge)
	if loginURL == "" {
		models.RespondError(c, h.logger, models.ErrUpstream)
		return
	}
	c.Redirect(http.StatusFound, loginURL)
}

// Callback completes the federated flow and establishes the session cookies.
func (h *AuthHandlers) Callback(c *gin.Context) {
	session := sessions.Default(c)
	expectedState, _ := session.Get(stateSessionKey).(string)
	verifier, _ := session.Get(pkceSessionKey).(string)
	session.Delete(stateSessionKey)
	session.Delete(pkceSessionKey)
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to clear oauth session", zap.Error(err))
	}

	if expectedState == "" || c.Query("state") != expectedState {
		h.logger.Warn("OAuth state mismatch", zap.String("ip", c.ClientIP()))
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	code := c.Query("code")
	if code == "" {
		models.RespondError(c, h.logger, models.ErrBadRequest)
		return
	}

	user, accessToken, refreshToken, err := h.authService.HandleCallback(c.Request.Context(), code, verifier)
	recordAuthAttempt(c, "oidc", err == nil)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	h.setSessionCookies(c, accessToken, refreshToken)
	h.logger.Info("Login callback completed",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_registered", user.IsRegistered),
	)
	c.Redirect(http.StatusFound, postLoginRedirect)
}

// PasswordLogin authenticates a bootstrap admin with local credentials.
func (h *AuthHandlers) PasswordLogin(c *gin.Context) {
	var req PasswordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, accessToken, refreshToken, err := h.authService.LoginWithPassword(c.Request.Context(), req.Email, req.Password)
	recordAuthAttempt(c, "password", err == nil)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	h.setSessionCookies(c, accessToken, refreshToken)
	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"role":          user.Role,
		"is_registered": user.IsRegistered,
	})
}

// Refresh rotates the refresh token and re-issues the session cookie.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	accessToken, newRefreshToken, err := h.authService.RefreshSession(c.Request.Context(), refreshToken)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	h.setSessionCookies(c, accessToken, newRefreshToken)
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

// Logout revokes the refresh token and clears the session cookies.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(refreshCookieName); err == nil && refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			h.logger.Warn("Logout invalidation failed", zap.Error(err))
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// Me returns the current session claims. The route is public (it powers the
// login page), so the session is resolved here rather than by the gate.
func (h *AuthHandlers) Me(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":         claims.UserID,
		"email":           claims.Email,
		"role":            claims.Role,
		"is_registered":   claims.IsRegistered,
		"policy_accepted": claims.PolicyAccepted,
	})
}

func (h *AuthHandlers) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	accessMaxAge := int(h.cfg.JWT.AccessTokenTTL.Seconds())
	refreshMaxAge := int(h.cfg.JWT.RefreshTokenTTL.Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, accessToken, accessMaxAge, "/", "", false, true)
	c.SetCookie(refreshCookieName, refreshToken, refreshMaxAge, "/", "", false, true)
}

func recordAuthAttempt(c *gin.Context, method string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	metrics.Get().AuthRequestsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}

func randomToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func pkceChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
