package statistics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type StatisticsHandlers struct {
	statisticsService StatisticsService
	cfg               *config.Config
	logger            *zap.Logger
}

func NewStatisticsHandlers(statisticsService StatisticsService, cfg *config.Config, logger *zap.Logger) *StatisticsHandlers {
	return &StatisticsHandlers{statisticsService: statisticsService, cfg: cfg, logger: logger}
}

func (h *StatisticsHandlers) Summary(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapViewStatistics); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	stats, err := h.statisticsService.Summary(c.Request.Context())
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
