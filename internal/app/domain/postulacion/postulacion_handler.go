package postulacion

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/app/observability/metrics"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type SubmitRequest struct {
	ConvocatoriaID string          `json:"convocatoria_id" binding:"required"`
	StartupID      string          `json:"startup_id" binding:"required"`
	Respuestas     json.RawMessage `json:"respuestas"`
}

type ChangeEstadoRequest struct {
	Estado string `json:"estado" binding:"required"`
}

type PostulacionHandlers struct {
	postulacionService PostulacionService
	cfg                *config.Config
	logger             *zap.Logger
}

func NewPostulacionHandlers(postulacionService PostulacionService, cfg *config.Config, logger *zap.Logger) *PostulacionHandlers {
	return &PostulacionHandlers{postulacionService: postulacionService, cfg: cfg, logger: logger}
}

func (h *PostulacionHandlers) Submit(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapSubmitPostulacion); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "convocatoria_id and startup_id are required"})
		return
	}

	p, err := h.postulacionService.Submit(c.Request.Context(), claims, SubmitInput{
		ConvocatoriaID: req.ConvocatoriaID,
		StartupID:      req.StartupID,
		Respuestas:     req.Respuestas,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	metrics.Get().SubmissionsTotal.Add(c.Request.Context(), 1)
	c.JSON(http.StatusCreated, p)
}

func (h *PostulacionHandlers) Get(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	p, err := h.postulacionService.GetPostulacion(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PostulacionHandlers) ListMine(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	postulaciones, err := h.postulacionService.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postulaciones": postulaciones})
}

// ListAll is the admin review queue, filterable by convocatoria and estado.
func (h *PostulacionHandlers) ListAll(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapReviewPostulaciones); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	postulaciones, err := h.postulacionService.ListAll(c.Request.Context(),
		c.Query("convocatoria_id"), c.Query("estado"), queryUint(c, "limit"), queryUint(c, "offset"))
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postulaciones": postulaciones})
}

func (h *PostulacionHandlers) ChangeEstado(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapReviewPostulaciones); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req ChangeEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "estado is required"})
		return
	}

	p, err := h.postulacionService.ChangeEstado(c.Request.Context(), c.Param("id"), req.Estado)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func queryUint(c *gin.Context, key string) uint64 {
	n, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
