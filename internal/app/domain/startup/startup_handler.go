package startup

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type StartupRequest struct {
	Nombre         string     `json:"nombre" binding:"required"`
	Descripcion    string     `json:"descripcion"`
	Sector         string     `json:"sector" binding:"required"`
	SitioWeb       *string    `json:"sitio_web"`
	FechaFundacion *time.Time `json:"fecha_fundacion"`
	Etapa          string     `json:"etapa"`
}

type StartupHandlers struct {
	startupService StartupService
	cfg            *config.Config
	logger         *zap.Logger
}

func NewStartupHandlers(startupService StartupService, cfg *config.Config, logger *zap.Logger) *StartupHandlers {
	return &StartupHandlers{startupService: startupService, cfg: cfg, logger: logger}
}

func (h *StartupHandlers) Register(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapRegisterStartup); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req StartupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre and sector are required"})
		return
	}

	startup, err := h.startupService.Register(c.Request.Context(), claims.UserID, RegisterStartupInput{
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		Sector:         req.Sector,
		SitioWeb:       req.SitioWeb,
		FechaFundacion: req.FechaFundacion,
		Etapa:          req.Etapa,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, startup)
}

func (h *StartupHandlers) GetMine(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	startups, err := h.startupService.GetOwnStartups(c.Request.Context(), claims.UserID)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"startups": startups})
}

func (h *StartupHandlers) Get(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	startup, err := h.startupService.GetStartup(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, startup)
}

func (h *StartupHandlers) Update(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	var req StartupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre and sector are required"})
		return
	}

	startup, err := h.startupService.Update(c.Request.Context(), c.Param("id"), claims, RegisterStartupInput{
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		Sector:         req.Sector,
		SitioWeb:       req.SitioWeb,
		FechaFundacion: req.FechaFundacion,
		Etapa:          req.Etapa,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, startup)
}

// ListAll is the admin directory with sector and name filters.
func (h *StartupHandlers) ListAll(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapViewStartupDirectory); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	startups, err := h.startupService.ListStartups(c.Request.Context(), c.Query("sector"), c.Query("q"), queryUint(c, "limit"), queryUint(c, "offset"))
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"startups": startups})
}

func queryUint(c *gin.Context, key string) uint64 {
	n, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
