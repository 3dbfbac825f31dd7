package impacto

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/postulacion"
	"github.com/impulsalab/convoca/internal/app/models"
)

var _ ImpactoService = (*ImpactoServiceImpl)(nil)

// AnswerInput is one questionnaire answer.
type AnswerInput struct {
	Criterio  string
	Pregunta  string
	Respuesta string
}

type ImpactoService interface {
	GetQuestionnaire(ctx context.Context, postulacionID string, claims *models.Claims) ([]models.ImpactResponse, error)
	// SaveAnswers updates questionnaire answers. Once an evaluación exists
	// the questionnaire is frozen.
	SaveAnswers(ctx context.Context, postulacionID string, claims *models.Claims, answers []AnswerInput) ([]models.ImpactResponse, error)
}

type ImpactoServiceImpl struct {
	logger          *zap.Logger
	repo            ImpactoRepo
	postulacionRepo postulacion.PostulacionRepo
}

func NewImpactoService(repo ImpactoRepo, postulacionRepo postulacion.PostulacionRepo, logger *zap.Logger) *ImpactoServiceImpl {
	return &ImpactoServiceImpl{logger: logger, repo: repo, postulacionRepo: postulacionRepo}
}

func (s *ImpactoServiceImpl) GetQuestionnaire(ctx context.Context, postulacionID string, claims *models.Claims) ([]models.ImpactResponse, error) {
	if err := s.authorizeAccess(ctx, postulacionID, claims); err != nil {
		return nil, err
	}
	return s.repo.ListByPostulacion(ctx, postulacionID)
}

func (s *ImpactoServiceImpl) SaveAnswers(ctx context.Context, postulacionID string, claims *models.Claims, answers []AnswerInput) ([]models.ImpactResponse, error) {
	l := s.logger.With(zap.String("method", "SaveAnswers"), zap.String("postulacion_id", postulacionID))

	if len(answers) == 0 {
		return nil, fmt.Errorf("at least one answer is required: %w", models.ErrValidation)
	}
	for _, a := range answers {
		if a.Criterio == "" || a.Pregunta == "" || strings.TrimSpace(a.Respuesta) == "" {
			return nil, fmt.Errorf("criterio, pregunta and respuesta are required: %w", models.ErrValidation)
		}
	}

	if err := s.authorizeAccess(ctx, postulacionID, claims); err != nil {
		return nil, err
	}

	evaluated, err := s.repo.EvaluationExists(ctx, postulacionID)
	if err != nil {
		return nil, err
	}
	if evaluated {
		return nil, fmt.Errorf("postulacion is already evaluated, answers are frozen: %w", models.ErrConflict)
	}

	for _, a := range answers {
		if err := s.repo.SaveRespuesta(ctx, postulacionID, a.Criterio, a.Pregunta, a.Respuesta); err != nil {
			l.Warn("Saving answer failed", zap.Error(err), zap.String("criterio", a.Criterio))
			return nil, err
		}
	}

	l.Info("Answers saved", zap.Int("count", len(answers)))
	return s.repo.ListByPostulacion(ctx, postulacionID)
}

func (s *ImpactoServiceImpl) authorizeAccess(ctx context.Context, postulacionID string, claims *models.Claims) error {
	if claims == nil {
		return models.ErrUnauthenticated
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	ownerID, err := s.postulacionRepo.GetOwnerID(ctx, postulacionID)
	if err != nil {
		return err
	}
	if ownerID.String() != claims.UserID {
		return fmt.Errorf("postulacion belongs to another user: %w", models.ErrForbidden)
	}
	return nil
}
