package convocatoria

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ ConvocatoriaService = (*ConvocatoriaServiceImpl)(nil)

const openListCacheKey = "convocatorias:open"

// ConvocatoriaInput carries the writable fields of a convocatoria.
type ConvocatoriaInput struct {
	Nombre      string
	Descripcion string
	FechaInicio time.Time
	FechaFin    time.Time
}

type ConvocatoriaService interface {
	Create(ctx context.Context, input ConvocatoriaInput) (*models.Convocatoria, error)
	GetConvocatoria(ctx context.Context, convID string) (*models.Convocatoria, error)
	// ListOpen is the public landing list; results are cached briefly.
	ListOpen(ctx context.Context) ([]models.Convocatoria, error)
	ListAll(ctx context.Context) ([]models.Convocatoria, error)
	Update(ctx context.Context, convID string, input ConvocatoriaInput) (*models.Convocatoria, error)
	ChangeEstado(ctx context.Context, convID, estado string) (*models.Convocatoria, error)
}

type ConvocatoriaServiceImpl struct {
	logger *zap.Logger
	repo   ConvocatoriaRepo
	cache  *cache.Cache
}

func NewConvocatoriaService(repo ConvocatoriaRepo, logger *zap.Logger) *ConvocatoriaServiceImpl {
	return &ConvocatoriaServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (s *ConvocatoriaServiceImpl) Create(ctx context.Context, input ConvocatoriaInput) (*models.Convocatoria, error) {
	l := s.logger.With(zap.String("method", "Create"))

	if err := validateInput(input); err != nil {
		return nil, err
	}

	conv := &models.Convocatoria{
		Nombre:      strings.TrimSpace(input.Nombre),
		Descripcion: input.Descripcion,
		FechaInicio: input.FechaInicio,
		FechaFin:    input.FechaFin,
		Estado:      models.ConvocatoriaBorrador,
	}

	created, err := s.repo.Create(ctx, conv)
	if err != nil {
		l.Warn("Convocatoria creation failed", zap.Error(err))
		return nil, err
	}

	l.Info("Convocatoria created", zap.String("convocatoria_id", created.ID.String()))
	return created, nil
}

func (s *ConvocatoriaServiceImpl) GetConvocatoria(ctx context.Context, convID string) (*models.Convocatoria, error) {
	return s.repo.GetByID(ctx, convID)
}

func (s *ConvocatoriaServiceImpl) ListOpen(ctx context.Context) ([]models.Convocatoria, error) {
	if cached, found := s.cache.Get(openListCacheKey); found {
		return cached.([]models.Convocatoria), nil
	}

	convs, err := s.repo.ListOpen(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	s.cache.Set(openListCacheKey, convs, cache.DefaultExpiration)
	return convs, nil
}

func (s *ConvocatoriaServiceImpl) ListAll(ctx context.Context) ([]models.Convocatoria, error) {
	return s.repo.ListAll(ctx)
}

func (s *ConvocatoriaServiceImpl) Update(ctx context.Context, convID string, input ConvocatoriaInput) (*models.Convocatoria, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}

	existing.Nombre = strings.TrimSpace(input.Nombre)
	existing.Descripcion = input.Descripcion
	existing.FechaInicio = input.FechaInicio
	existing.FechaFin = input.FechaFin

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(openListCacheKey)
	return updated, nil
}

// ChangeEstado moves a convocatoria along borrador -> abierta -> cerrada.
// Reopening a closed convocatoria is not allowed.
func (s *ConvocatoriaServiceImpl) ChangeEstado(ctx context.Context, convID, estado string) (*models.Convocatoria, error) {
	l := s.logger.With(zap.String("method", "ChangeEstado"), zap.String("convocatoria_id", convID))

	if estado != models.ConvocatoriaAbierta && estado != models.ConvocatoriaCerrada {
		return nil, fmt.Errorf("estado must be abierta or cerrada: %w", models.ErrValidation)
	}

	existing, err := s.repo.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}

	if existing.Estado == models.ConvocatoriaCerrada {
		return nil, fmt.Errorf("convocatoria is already closed: %w", models.ErrConflict)
	}
	if existing.Estado == estado {
		return nil, fmt.Errorf("convocatoria is already %s: %w", estado, models.ErrConflict)
	}

	updated, err := s.repo.UpdateEstado(ctx, convID, estado)
	if err != nil {
		l.Error("Estado change failed", zap.Error(err))
		return nil, err
	}

	s.cache.Delete(openListCacheKey)
	l.Info("Convocatoria estado changed", zap.String("estado", estado))
	return updated, nil
}

func validateInput(input ConvocatoriaInput) error {
	if strings.TrimSpace(input.Nombre) == "" {
		return fmt.Errorf("nombre is required: %w", models.ErrValidation)
	}
	if input.FechaInicio.IsZero() || input.FechaFin.IsZero() {
		return fmt.Errorf("fecha_inicio and fecha_fin are required: %w", models.ErrValidation)
	}
	if !input.FechaFin.After(input.FechaInicio) {
		return fmt.Errorf("fecha_fin must be after fecha_inicio: %w", models.ErrValidation)
	}
	return nil
}
