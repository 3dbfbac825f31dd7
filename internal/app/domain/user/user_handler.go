package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/auth"
	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type CompleteProfileRequest struct {
	Nombre         string  `json:"nombre" binding:"required"`
	Telefono       *string `json:"telefono"`
	LinkedinURL    *string `json:"linkedin_url"`
	PolicyAccepted bool    `json:"policy_accepted"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UserHandlers struct {
	userService UserService
	authService auth.AuthService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewUserHandlers(userService UserService, authService auth.AuthService, cfg *config.Config, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		authService: authService,
		cfg:         cfg,
		logger:      logger,
	}
}

func (h *UserHandlers) GetMe(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe completes the profile. On success the session token is re-issued
// so the is_registered flag the access gate reads is immediately current.
func (h *UserHandlers) UpdateMe(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	var req CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre is required"})
		return
	}

	user, err := h.userService.CompleteProfile(c.Request.Context(), claims.UserID, CompleteProfileInput{
		Nombre:         req.Nombre,
		Telefono:       req.Telefono,
		LinkedinURL:    req.LinkedinURL,
		PolicyAccepted: req.PolicyAccepted,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	accessToken, refreshToken, err := h.authService.GenerateTokens(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("Failed to re-issue session after profile completion", zap.Error(err))
		models.RespondError(c, h.logger, models.ErrInternal)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("auth_token", accessToken, int(h.cfg.JWT.AccessTokenTTL.Seconds()), "/", "", false, true)
	c.SetCookie("refresh_token", refreshToken, int(h.cfg.JWT.RefreshTokenTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, user)
}

// ListUsers is admin-only; the capability is re-checked here, not assumed
// from the gate.
func (h *UserHandlers) ListUsers(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageUsers); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), c.Query("role"), c.Query("q"), queryUint(c, "limit"), queryUint(c, "offset"))
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usuarios": users})
}

func (h *UserHandlers) ChangeRole(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageUsers); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	if err := h.userService.ChangeRole(c.Request.Context(), c.Param("id"), role); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func queryUint(c *gin.Context, key string) uint64 {
	n, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
