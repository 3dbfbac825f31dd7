package evaluacion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/impacto"
	"github.com/impulsalab/convoca/internal/app/domain/postulacion"
	"github.com/impulsalab/convoca/internal/app/domain/startup"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

var _ EvaluacionService = (*EvaluacionServiceImpl)(nil)

type EvaluacionService interface {
	// Evaluate runs the AI scoring for a postulación. It is idempotent per
	// postulación: a second call returns a conflict, never a second score.
	Evaluate(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Evaluacion, error)
	// GetEvaluacion returns the score. Admins read anytime; the owning
	// founder only once the postulación reached a terminal estado.
	GetEvaluacion(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Evaluacion, error)
}

type EvaluacionServiceImpl struct {
	logger          *zap.Logger
	repo            EvaluacionRepo
	postulacionRepo postulacion.PostulacionRepo
	startupRepo     startup.StartupRepo
	impactoRepo     impacto.ImpactoRepo
	scorer          Scorer
	cfg             *config.Config
}

func NewEvaluacionService(repo EvaluacionRepo, postulacionRepo postulacion.PostulacionRepo, startupRepo startup.StartupRepo, impactoRepo impacto.ImpactoRepo, scorer Scorer, cfg *config.Config, logger *zap.Logger) *EvaluacionServiceImpl {
	return &EvaluacionServiceImpl{
		logger:          logger,
		repo:            repo,
		postulacionRepo: postulacionRepo,
		startupRepo:     startupRepo,
		impactoRepo:     impactoRepo,
		scorer:          scorer,
		cfg:             cfg,
	}
}

func (s *EvaluacionServiceImpl) Evaluate(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Evaluacion, error) {
	l := s.logger.With(zap.String("method", "Evaluate"), zap.String("postulacion_id", postulacionID))

	p, err := s.postulacionRepo.GetByID(ctx, postulacionID)
	if err != nil {
		return nil, err
	}

	// Cheap duplicate check up front; the unique constraint on
	// postulacion_id still backs this under concurrency.
	if _, err := s.repo.GetByPostulacion(ctx, postulacionID); err == nil {
		return nil, fmt.Errorf("postulacion %s is already evaluated: %w", postulacionID, models.ErrConflict)
	}

	st, err := s.startupRepo.GetByID(ctx, p.StartupID.String())
	if err != nil {
		return nil, err
	}
	respuestas, err := s.impactoRepo.ListByPostulacion(ctx, postulacionID)
	if err != nil {
		return nil, err
	}
	if len(respuestas) == 0 {
		return nil, fmt.Errorf("postulacion has no questionnaire answers to evaluate: %w", models.ErrBadRequest)
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.cfg.Evaluation.Timeout)
	defer cancel()

	scores, err := s.scorer.Score(scoreCtx, ScoreInput{
		StartupNombre:      st.Nombre,
		StartupDescripcion: st.Descripcion,
		StartupSector:      st.Sector,
		Respuestas:         respuestas,
	})
	if err != nil {
		l.Warn("Scoring failed", zap.Error(err))
		return nil, err
	}
	if err := validateScores(scores); err != nil {
		l.Warn("Scorer returned an invalid breakdown", zap.Error(err))
		return nil, err
	}

	total := 0
	for _, sc := range scores {
		total += sc.Puntaje
	}

	generadaPor, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in session: %w", models.ErrBadRequest)
	}

	ev := &models.Evaluacion{
		PostulacionID: p.ID,
		ModelName:     s.scorer.ModelName(),
		Criterios:     scores,
		PuntajeTotal:  total,
		Umbral:        s.cfg.Evaluation.PassThreshold,
		Aprobada:      total >= s.cfg.Evaluation.PassThreshold,
		GeneradaPor:   generadaPor,
	}

	created, err := s.repo.Create(ctx, ev)
	if err != nil {
		return nil, err
	}

	l.Info("Postulacion evaluated",
		zap.Int("puntaje_total", created.PuntajeTotal),
		zap.Bool("aprobada", created.Aprobada),
		zap.String("model", created.ModelName))
	return created, nil
}

func (s *EvaluacionServiceImpl) GetEvaluacion(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Evaluacion, error) {
	if claims == nil {
		return nil, models.ErrUnauthenticated
	}

	if claims.Role != models.RoleAdmin {
		ownerID, err := s.postulacionRepo.GetOwnerID(ctx, postulacionID)
		if err != nil {
			return nil, err
		}
		if ownerID.String() != claims.UserID {
			return nil, fmt.Errorf("postulacion belongs to another user: %w", models.ErrForbidden)
		}
		p, err := s.postulacionRepo.GetByID(ctx, postulacionID)
		if err != nil {
			return nil, err
		}
		if p.Estado != models.PostulacionAceptada && p.Estado != models.PostulacionRechazada {
			return nil, fmt.Errorf("evaluacion is not published yet: %w", models.ErrForbidden)
		}
	}

	return s.repo.GetByPostulacion(ctx, postulacionID)
}

// validateScores rejects breakdowns the model got structurally wrong.
func validateScores(scores []models.CriterionScore) error {
	expected := models.Criterios()
	if len(scores) != len(expected) {
		return fmt.Errorf("expected %d criteria, got %d: %w", len(expected), len(scores), models.ErrUpstream)
	}
	seen := make(map[string]bool, len(scores))
	for _, sc := range scores {
		if sc.Puntaje < 0 || sc.Puntaje > 20 {
			return fmt.Errorf("puntaje %d for %q out of range: %w", sc.Puntaje, sc.Criterio, models.ErrUpstream)
		}
		seen[sc.Criterio] = true
	}
	for _, criterio := range expected {
		if !seen[criterio] {
			return fmt.Errorf("missing criterio %q in breakdown: %w", criterio, models.ErrUpstream)
		}
	}
	return nil
}
