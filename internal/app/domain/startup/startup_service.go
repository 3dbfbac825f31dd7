package startup

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ StartupService = (*StartupServiceImpl)(nil)

// RegisterStartupInput carries the fields accepted when creating or
// updating a startup profile.
type RegisterStartupInput struct {
	Nombre         string
	Descripcion    string
	Sector         string
	SitioWeb       *string
	FechaFundacion *time.Time
	Etapa          string
}

type StartupService interface {
	Register(ctx context.Context, ownerID string, input RegisterStartupInput) (*models.Startup, error)
	GetStartup(ctx context.Context, startupID string, claims *models.Claims) (*models.Startup, error)
	GetOwnStartups(ctx context.Context, ownerID string) ([]models.Startup, error)
	Update(ctx context.Context, startupID string, claims *models.Claims, input RegisterStartupInput) (*models.Startup, error)
	ListStartups(ctx context.Context, sector, nameQuery string, limit, offset uint64) ([]models.Startup, error)
}

type StartupServiceImpl struct {
	logger *zap.Logger
	repo   StartupRepo
}

func NewStartupService(repo StartupRepo, logger *zap.Logger) *StartupServiceImpl {
	return &StartupServiceImpl{logger: logger, repo: repo}
}

// stripAccents removes combining marks so "Kawsay" and "Kawsáy" collide.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases, strips accents and collapses inner whitespace.
// Uniqueness of startup names is enforced on this form, not the display name.
func NormalizeName(nombre string) string {
	folded, _, err := transform.String(stripAccents, nombre)
	if err != nil {
		folded = nombre
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func (s *StartupServiceImpl) Register(ctx context.Context, ownerID string, input RegisterStartupInput) (*models.Startup, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("owner_id", ownerID))

	if err := validateInput(input); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", models.ErrBadRequest)
	}

	startup := &models.Startup{
		OwnerID:           owner,
		Nombre:            strings.TrimSpace(input.Nombre),
		NombreNormalizado: NormalizeName(input.Nombre),
		Descripcion:       input.Descripcion,
		Sector:            input.Sector,
		SitioWeb:          input.SitioWeb,
		FechaFundacion:    input.FechaFundacion,
		Etapa:             input.Etapa,
	}

	created, err := s.repo.Create(ctx, startup)
	if err != nil {
		l.Warn("Startup registration failed", zap.Error(err))
		return nil, err
	}

	l.Info("Startup registered", zap.String("startup_id", created.ID.String()))
	return created, nil
}

// GetStartup enforces ownership: a regular user only sees their own
// startups while admins see any.
func (s *StartupServiceImpl) GetStartup(ctx context.Context, startupID string, claims *models.Claims) (*models.Startup, error) {
	startup, err := s.repo.GetByID(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnership(claims, startup.OwnerID); err != nil {
		return nil, err
	}
	return startup, nil
}

func (s *StartupServiceImpl) GetOwnStartups(ctx context.Context, ownerID string) ([]models.Startup, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *StartupServiceImpl) Update(ctx context.Context, startupID string, claims *models.Claims, input RegisterStartupInput) (*models.Startup, error) {
	l := s.logger.With(zap.String("method", "Update"), zap.String("startup_id", startupID))

	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnership(claims, existing.OwnerID); err != nil {
		return nil, err
	}

	existing.Nombre = strings.TrimSpace(input.Nombre)
	existing.NombreNormalizado = NormalizeName(input.Nombre)
	existing.Descripcion = input.Descripcion
	existing.Sector = input.Sector
	existing.SitioWeb = input.SitioWeb
	existing.FechaFundacion = input.FechaFundacion
	existing.Etapa = input.Etapa

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		l.Warn("Startup update failed", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (s *StartupServiceImpl) ListStartups(ctx context.Context, sector, nameQuery string, limit, offset uint64) ([]models.Startup, error) {
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, sector, NormalizeName(nameQuery), limit, offset)
}

func validateInput(input RegisterStartupInput) error {
	if strings.TrimSpace(input.Nombre) == "" {
		return fmt.Errorf("nombre is required: %w", models.ErrValidation)
	}
	if input.Sector == "" {
		return fmt.Errorf("sector is required: %w", models.ErrValidation)
	}
	return nil
}

func authorizeOwnership(claims *models.Claims, ownerID uuid.UUID) error {
	if claims == nil {
		return models.ErrUnauthenticated
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if claims.UserID != ownerID.String() {
		return fmt.Errorf("startup belongs to another user: %w", models.ErrForbidden)
	}
	return nil
}
