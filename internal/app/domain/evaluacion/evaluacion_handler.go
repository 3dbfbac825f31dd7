package evaluacion

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/app/observability/metrics"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type EvaluacionHandlers struct {
	evaluacionService EvaluacionService
	cfg               *config.Config
	logger            *zap.Logger
}

func NewEvaluacionHandlers(evaluacionService EvaluacionService, cfg *config.Config, logger *zap.Logger) *EvaluacionHandlers {
	return &EvaluacionHandlers{evaluacionService: evaluacionService, cfg: cfg, logger: logger}
}

// Evaluate triggers the AI scoring; admin only.
func (h *EvaluacionHandlers) Evaluate(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapEvaluatePostulaciones); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	start := time.Now()
	ev, err := h.evaluacionService.Evaluate(c.Request.Context(), c.Param("id"), claims)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m := metrics.Get()
	m.EvaluationsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.EvaluationDuration.Record(c.Request.Context(), time.Since(start).Seconds())
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *EvaluacionHandlers) Get(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	ev, err := h.evaluacionService.GetEvaluacion(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}
