package startup

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ StartupRepo = (*PostgresStartupRepo)(nil)

type StartupRepo interface {
	Create(ctx context.Context, startup *models.Startup) (*models.Startup, error)
	GetByID(ctx context.Context, startupID string) (*models.Startup, error)
	GetByOwner(ctx context.Context, ownerID string) ([]models.Startup, error)
	Update(ctx context.Context, startup *models.Startup) (*models.Startup, error)
	// List returns startups filtered by sector and/or normalized-name match.
	List(ctx context.Context, sector, nameQuery string, limit, offset uint64) ([]models.Startup, error)
}

type PostgresStartupRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresStartupRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresStartupRepo {
	return &PostgresStartupRepo{logger: logger, pgpool: pgpool}
}

const startupColumns = `id, owner_id, nombre, nombre_normalizado, descripcion, sector, sitio_web, fecha_fundacion, etapa, created_at, updated_at`

func scanStartup(row pgx.Row) (*models.Startup, error) {
	var s models.Startup
	err := row.Scan(&s.ID, &s.OwnerID, &s.Nombre, &s.NombreNormalizado, &s.Descripcion,
		&s.Sector, &s.SitioWeb, &s.FechaFundacion, &s.Etapa, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresStartupRepo) Create(ctx context.Context, startup *models.Startup) (*models.Startup, error) {
	query := `INSERT INTO startups (owner_id, nombre, nombre_normalizado, descripcion, sector, sitio_web, fecha_fundacion, etapa)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING ` + startupColumns
	created, err := scanStartup(r.pgpool.QueryRow(ctx, query,
		startup.OwnerID, startup.Nombre, startup.NombreNormalizado, startup.Descripcion,
		startup.Sector, startup.SitioWeb, startup.FechaFundacion, startup.Etapa))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("startup %q already exists: %w", startup.Nombre, models.ErrConflict)
		}
		r.logger.Error("Error creating startup", zap.Error(err))
		return nil, fmt.Errorf("database error creating startup: %w", err)
	}
	return created, nil
}

func (r *PostgresStartupRepo) GetByID(ctx context.Context, startupID string) (*models.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups WHERE id = $1`
	startup, err := scanStartup(r.pgpool.QueryRow(ctx, query, startupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("startup %s not found: %w", startupID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching startup", zap.Error(err), zap.String("startup_id", startupID))
		return nil, fmt.Errorf("database error fetching startup: %w", err)
	}
	return startup, nil
}

func (r *PostgresStartupRepo) GetByOwner(ctx context.Context, ownerID string) ([]models.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.pgpool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Error listing startups by owner", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("database error listing startups: %w", err)
	}
	defer rows.Close()

	return collectStartups(rows)
}

func (r *PostgresStartupRepo) Update(ctx context.Context, startup *models.Startup) (*models.Startup, error) {
	query := `UPDATE startups
	          SET nombre = $1, nombre_normalizado = $2, descripcion = $3, sector = $4,
	              sitio_web = $5, fecha_fundacion = $6, etapa = $7, updated_at = NOW()
	          WHERE id = $8
	          RETURNING ` + startupColumns
	updated, err := scanStartup(r.pgpool.QueryRow(ctx, query,
		startup.Nombre, startup.NombreNormalizado, startup.Descripcion, startup.Sector,
		startup.SitioWeb, startup.FechaFundacion, startup.Etapa, startup.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("startup %s not found: %w", startup.ID, models.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("startup %q already exists: %w", startup.Nombre, models.ErrConflict)
		}
		r.logger.Error("Error updating startup", zap.Error(err), zap.String("startup_id", startup.ID.String()))
		return nil, fmt.Errorf("database error updating startup: %w", err)
	}
	return updated, nil
}

func (r *PostgresStartupRepo) List(ctx context.Context, sector, nameQuery string, limit, offset uint64) ([]models.Startup, error) {
	builder := sq.Select(startupColumns).
		From("startups").
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		PlaceholderFormat(sq.Dollar)

	if sector != "" {
		builder = builder.Where(sq.Eq{"sector": sector})
	}
	if nameQuery != "" {
		builder = builder.Where(sq.Like{"nombre_normalizado": "%" + nameQuery + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building startup list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error listing startups", zap.Error(err))
		return nil, fmt.Errorf("database error listing startups: %w", err)
	}
	defer rows.Close()

	return collectStartups(rows)
}

func collectStartups(rows pgx.Rows) ([]models.Startup, error) {
	var startups []models.Startup
	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning startup row: %w", err)
		}
		startups = append(startups, *s)
	}
	return startups, rows.Err()
}
