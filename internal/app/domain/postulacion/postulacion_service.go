package postulacion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/convocatoria"
	"github.com/impulsalab/convoca/internal/app/domain/startup"
	"github.com/impulsalab/convoca/internal/app/models"
)

var _ PostulacionService = (*PostulacionServiceImpl)(nil)

// SubmitInput carries a new submission.
type SubmitInput struct {
	ConvocatoriaID string
	StartupID      string
	Respuestas     json.RawMessage
}

type PostulacionService interface {
	// Submit applies a startup to a convocatoria. The convocatoria must be
	// abierta and the current time inside its date window. The postulación
	// and its questionnaire skeleton are written atomically.
	Submit(ctx context.Context, claims *models.Claims, input SubmitInput) (*models.Postulacion, error)
	GetPostulacion(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Postulacion, error)
	ListOwn(ctx context.Context, ownerID string) ([]models.Postulacion, error)
	ListAll(ctx context.Context, convocatoriaID, estado string, limit, offset uint64) ([]models.Postulacion, error)
	ChangeEstado(ctx context.Context, postulacionID, estado string) (*models.Postulacion, error)
}

type PostulacionServiceImpl struct {
	logger      *zap.Logger
	repo        PostulacionRepo
	startupRepo startup.StartupRepo
	convRepo    convocatoria.ConvocatoriaRepo
}

func NewPostulacionService(repo PostulacionRepo, startupRepo startup.StartupRepo, convRepo convocatoria.ConvocatoriaRepo, logger *zap.Logger) *PostulacionServiceImpl {
	return &PostulacionServiceImpl{
		logger:      logger,
		repo:        repo,
		startupRepo: startupRepo,
		convRepo:    convRepo,
	}
}

func (s *PostulacionServiceImpl) Submit(ctx context.Context, claims *models.Claims, input SubmitInput) (*models.Postulacion, error) {
	l := s.logger.With(zap.String("method", "Submit"),
		zap.String("convocatoria_id", input.ConvocatoriaID),
		zap.String("startup_id", input.StartupID))

	if input.ConvocatoriaID == "" || input.StartupID == "" {
		return nil, fmt.Errorf("convocatoria_id and startup_id are required: %w", models.ErrValidation)
	}

	st, err := s.startupRepo.GetByID(ctx, input.StartupID)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin && st.OwnerID.String() != claims.UserID {
		return nil, fmt.Errorf("startup belongs to another user: %w", models.ErrForbidden)
	}

	conv, err := s.convRepo.GetByID(ctx, input.ConvocatoriaID)
	if err != nil {
		return nil, err
	}
	if conv.Estado != models.ConvocatoriaAbierta {
		return nil, fmt.Errorf("convocatoria is not open for submissions: %w", models.ErrBadRequest)
	}
	now := time.Now()
	if now.Before(conv.FechaInicio) || now.After(conv.FechaFin) {
		return nil, fmt.Errorf("convocatoria submission window is closed: %w", models.ErrBadRequest)
	}

	respuestas := input.Respuestas
	if len(respuestas) == 0 {
		respuestas = json.RawMessage(`{}`)
	}

	p := &models.Postulacion{
		ConvocatoriaID: conv.ID,
		StartupID:      st.ID,
		Estado:         models.PostulacionEnviada,
		Respuestas:     respuestas,
	}

	created, err := s.repo.Submit(ctx, p, models.ImpactQuestionnaire)
	if err != nil {
		l.Warn("Submission failed", zap.Error(err))
		return nil, err
	}

	l.Info("Postulacion submitted", zap.String("postulacion_id", created.ID.String()))
	return created, nil
}

func (s *PostulacionServiceImpl) GetPostulacion(ctx context.Context, postulacionID string, claims *models.Claims) (*models.Postulacion, error) {
	p, err := s.repo.GetByID(ctx, postulacionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAccess(ctx, postulacionID, claims); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostulacionServiceImpl) ListOwn(ctx context.Context, ownerID string) ([]models.Postulacion, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *PostulacionServiceImpl) ListAll(ctx context.Context, convocatoriaID, estado string, limit, offset uint64) ([]models.Postulacion, error) {
	if estado != "" && !validEstado(estado) {
		return nil, fmt.Errorf("unknown estado %q: %w", estado, models.ErrValidation)
	}
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, convocatoriaID, estado, limit, offset)
}

func (s *PostulacionServiceImpl) ChangeEstado(ctx context.Context, postulacionID, estado string) (*models.Postulacion, error) {
	l := s.logger.With(zap.String("method", "ChangeEstado"), zap.String("postulacion_id", postulacionID))

	if !validEstado(estado) {
		return nil, fmt.Errorf("unknown estado %q: %w", estado, models.ErrValidation)
	}

	updated, err := s.repo.UpdateEstado(ctx, postulacionID, estado)
	if err != nil {
		l.Error("Estado change failed", zap.Error(err))
		return nil, err
	}

	l.Info("Postulacion estado changed", zap.String("estado", estado))
	return updated, nil
}

// authorizeAccess lets the owning founder or any admin through.
func (s *PostulacionServiceImpl) authorizeAccess(ctx context.Context, postulacionID string, claims *models.Claims) error {
	if claims == nil {
		return models.ErrUnauthenticated
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	ownerID, err := s.repo.GetOwnerID(ctx, postulacionID)
	if err != nil {
		return err
	}
	if ownerID.String() != claims.UserID {
		return fmt.Errorf("postulacion belongs to another user: %w", models.ErrForbidden)
	}
	return nil
}

func validEstado(estado string) bool {
	switch estado {
	case models.PostulacionEnviada, models.PostulacionEnRevision, models.PostulacionAceptada, models.PostulacionRechazada:
		return true
	}
	return false
}
