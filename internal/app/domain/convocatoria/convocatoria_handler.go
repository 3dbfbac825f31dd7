package convocatoria

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type ConvocatoriaRequest struct {
	Nombre      string    `json:"nombre" binding:"required"`
	Descripcion string    `json:"descripcion"`
	FechaInicio time.Time `json:"fecha_inicio" binding:"required"`
	FechaFin    time.Time `json:"fecha_fin" binding:"required"`
}

type ChangeEstadoRequest struct {
	Estado string `json:"estado" binding:"required"`
}

type ConvocatoriaHandlers struct {
	convService ConvocatoriaService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewConvocatoriaHandlers(convService ConvocatoriaService, cfg *config.Config, logger *zap.Logger) *ConvocatoriaHandlers {
	return &ConvocatoriaHandlers{convService: convService, cfg: cfg, logger: logger}
}

// ListOpen backs the landing page; any signed-in user may call it.
func (h *ConvocatoriaHandlers) ListOpen(c *gin.Context) {
	convs, err := h.convService.ListOpen(c.Request.Context())
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"convocatorias": convs})
}

func (h *ConvocatoriaHandlers) Get(c *gin.Context) {
	conv, err := h.convService.GetConvocatoria(c.Request.Context(), c.Param("id"))
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConvocatoriaHandlers) Create(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageConvocatorias); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req ConvocatoriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre, fecha_inicio and fecha_fin are required"})
		return
	}

	conv, err := h.convService.Create(c.Request.Context(), ConvocatoriaInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		FechaInicio: req.FechaInicio,
		FechaFin:    req.FechaFin,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConvocatoriaHandlers) ListAll(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageConvocatorias); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	convs, err := h.convService.ListAll(c.Request.Context())
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"convocatorias": convs})
}

func (h *ConvocatoriaHandlers) Update(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageConvocatorias); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req ConvocatoriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre, fecha_inicio and fecha_fin are required"})
		return
	}

	conv, err := h.convService.Update(c.Request.Context(), c.Param("id"), ConvocatoriaInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		FechaInicio: req.FechaInicio,
		FechaFin:    req.FechaFin,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConvocatoriaHandlers) ChangeEstado(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapManageConvocatorias); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req ChangeEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "estado is required"})
		return
	}

	conv, err := h.convService.ChangeEstado(c.Request.Context(), c.Param("id"), req.Estado)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
