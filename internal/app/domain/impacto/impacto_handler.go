package impacto

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type AnswerRequest struct {
	Criterio  string `json:"criterio" binding:"required"`
	Pregunta  string `json:"pregunta" binding:"required"`
	Respuesta string `json:"respuesta" binding:"required"`
}

type SaveAnswersRequest struct {
	Respuestas []AnswerRequest `json:"respuestas" binding:"required,min=1,dive"`
}

type ImpactoHandlers struct {
	impactoService ImpactoService
	cfg            *config.Config
	logger         *zap.Logger
}

func NewImpactoHandlers(impactoService ImpactoService, cfg *config.Config, logger *zap.Logger) *ImpactoHandlers {
	return &ImpactoHandlers{impactoService: impactoService, cfg: cfg, logger: logger}
}

func (h *ImpactoHandlers) GetQuestionnaire(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	responses, err := h.impactoService.GetQuestionnaire(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"respuestas": responses})
}

func (h *ImpactoHandlers) SaveAnswers(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapAnswerImpact); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	var req SaveAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "respuestas with criterio, pregunta and respuesta are required"})
		return
	}

	answers := make([]AnswerInput, 0, len(req.Respuestas))
	for _, a := range req.Respuestas {
		answers = append(answers, AnswerInput{Criterio: a.Criterio, Pregunta: a.Pregunta, Respuesta: a.Respuesta})
	}

	responses, err := h.impactoService.SaveAnswers(c.Request.Context(), c.Param("id"), claims, answers)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"respuestas": responses})
}
