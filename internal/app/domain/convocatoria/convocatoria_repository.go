package convocatoria

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ ConvocatoriaRepo = (*PostgresConvocatoriaRepo)(nil)

type ConvocatoriaRepo interface {
	Create(ctx context.Context, conv *models.Convocatoria) (*models.Convocatoria, error)
	GetByID(ctx context.Context, convID string) (*models.Convocatoria, error)
	ListOpen(ctx context.Context, now time.Time) ([]models.Convocatoria, error)
	ListAll(ctx context.Context) ([]models.Convocatoria, error)
	Update(ctx context.Context, conv *models.Convocatoria) (*models.Convocatoria, error)
	UpdateEstado(ctx context.Context, convID, estado string) (*models.Convocatoria, error)
}

type PostgresConvocatoriaRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresConvocatoriaRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresConvocatoriaRepo {
	return &PostgresConvocatoriaRepo{logger: logger, pgpool: pgpool}
}

const convocatoriaColumns = `id, nombre, descripcion, fecha_inicio, fecha_fin, estado, created_at, updated_at`

func scanConvocatoria(row pgx.Row) (*models.Convocatoria, error) {
	var c models.Convocatoria
	err := row.Scan(&c.ID, &c.Nombre, &c.Descripcion, &c.FechaInicio, &c.FechaFin,
		&c.Estado, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresConvocatoriaRepo) Create(ctx context.Context, conv *models.Convocatoria) (*models.Convocatoria, error) {
	query := `INSERT INTO convocatorias (nombre, descripcion, fecha_inicio, fecha_fin, estado)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + convocatoriaColumns
	created, err := scanConvocatoria(r.pgpool.QueryRow(ctx, query,
		conv.Nombre, conv.Descripcion, conv.FechaInicio, conv.FechaFin, conv.Estado))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("convocatoria %q already exists: %w", conv.Nombre, models.ErrConflict)
		}
		r.logger.Error("Error creating convocatoria", zap.Error(err))
		return nil, fmt.Errorf("database error creating convocatoria: %w", err)
	}
	return created, nil
}

func (r *PostgresConvocatoriaRepo) GetByID(ctx context.Context, convID string) (*models.Convocatoria, error) {
	query := `SELECT ` + convocatoriaColumns + ` FROM convocatorias WHERE id = $1`
	conv, err := scanConvocatoria(r.pgpool.QueryRow(ctx, query, convID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("convocatoria %s not found: %w", convID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching convocatoria", zap.Error(err), zap.String("convocatoria_id", convID))
		return nil, fmt.Errorf("database error fetching convocatoria: %w", err)
	}
	return conv, nil
}

// ListOpen returns convocatorias whose estado is abierta and whose date
// window contains now.
func (r *PostgresConvocatoriaRepo) ListOpen(ctx context.Context, now time.Time) ([]models.Convocatoria, error) {
	query := `SELECT ` + convocatoriaColumns + `
	          FROM convocatorias
	          WHERE estado = $1 AND fecha_inicio <= $2 AND fecha_fin >= $2
	          ORDER BY fecha_fin ASC`
	rows, err := r.pgpool.Query(ctx, query, models.ConvocatoriaAbierta, now)
	if err != nil {
		r.logger.Error("Error listing open convocatorias", zap.Error(err))
		return nil, fmt.Errorf("database error listing convocatorias: %w", err)
	}
	defer rows.Close()

	return collectConvocatorias(rows)
}

func (r *PostgresConvocatoriaRepo) ListAll(ctx context.Context) ([]models.Convocatoria, error) {
	query := `SELECT ` + convocatoriaColumns + ` FROM convocatorias ORDER BY created_at DESC`
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Error listing convocatorias", zap.Error(err))
		return nil, fmt.Errorf("database error listing convocatorias: %w", err)
	}
	defer rows.Close()

	return collectConvocatorias(rows)
}

func (r *PostgresConvocatoriaRepo) Update(ctx context.Context, conv *models.Convocatoria) (*models.Convocatoria, error) {
	query := `UPDATE convocatorias
	          SET nombre = $1, descripcion = $2, fecha_inicio = $3, fecha_fin = $4, updated_at = NOW()
	          WHERE id = $5
	          RETURNING ` + convocatoriaColumns
	updated, err := scanConvocatoria(r.pgpool.QueryRow(ctx, query,
		conv.Nombre, conv.Descripcion, conv.FechaInicio, conv.FechaFin, conv.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("convocatoria %s not found: %w", conv.ID, models.ErrNotFound)
		}
		r.logger.Error("Error updating convocatoria", zap.Error(err), zap.String("convocatoria_id", conv.ID.String()))
		return nil, fmt.Errorf("database error updating convocatoria: %w", err)
	}
	return updated, nil
}

func (r *PostgresConvocatoriaRepo) UpdateEstado(ctx context.Context, convID, estado string) (*models.Convocatoria, error) {
	query := `UPDATE convocatorias SET estado = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + convocatoriaColumns
	updated, err := scanConvocatoria(r.pgpool.QueryRow(ctx, query, estado, convID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("convocatoria %s not found: %w", convID, models.ErrNotFound)
		}
		r.logger.Error("Error updating convocatoria estado", zap.Error(err), zap.String("convocatoria_id", convID))
		return nil, fmt.Errorf("database error updating convocatoria estado: %w", err)
	}
	return updated, nil
}

func collectConvocatorias(rows pgx.Rows) ([]models.Convocatoria, error) {
	var convs []models.Convocatoria
	for rows.Next() {
		c, err := scanConvocatoria(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning convocatoria row: %w", err)
		}
		convs = append(convs, *c)
	}
	return convs, rows.Err()
}
