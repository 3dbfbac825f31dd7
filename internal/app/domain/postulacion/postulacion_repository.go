package postulacion

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ PostulacionRepo = (*PostgresPostulacionRepo)(nil)

// PGXPool is the subset of pgxpool.Pool the repository needs. It exists
// so tests can substitute a pgxmock pool.
type PGXPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostulacionRepo interface {
	// Submit inserts the postulación and seeds its questionnaire rows in a
	// single transaction.
	Submit(ctx context.Context, p *models.Postulacion, questions []models.ImpactQuestion) (*models.Postulacion, error)
	GetByID(ctx context.Context, postulacionID string) (*models.Postulacion, error)
	// GetOwnerID resolves the owning user through the startup record.
	GetOwnerID(ctx context.Context, postulacionID string) (uuid.UUID, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Postulacion, error)
	List(ctx context.Context, convocatoriaID, estado string, limit, offset uint64) ([]models.Postulacion, error)
	UpdateEstado(ctx context.Context, postulacionID, estado string) (*models.Postulacion, error)
}

type PostgresPostulacionRepo struct {
	logger *zap.Logger
	pgpool PGXPool
}

func NewPostgresPostulacionRepo(pgpool PGXPool, logger *zap.Logger) *PostgresPostulacionRepo {
	return &PostgresPostulacionRepo{logger: logger, pgpool: pgpool}
}

const postulacionColumns = `id, convocatoria_id, startup_id, estado, respuestas, created_at, updated_at`

func scanPostulacion(row pgx.Row) (*models.Postulacion, error) {
	var p models.Postulacion
	err := row.Scan(&p.ID, &p.ConvocatoriaID, &p.StartupID, &p.Estado, &p.Respuestas,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPostulacionRepo) Submit(ctx context.Context, p *models.Postulacion, questions []models.ImpactQuestion) (*models.Postulacion, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning submit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `INSERT INTO postulaciones (convocatoria_id, startup_id, estado, respuestas)
	                VALUES ($1, $2, $3, $4)
	                RETURNING ` + postulacionColumns
	created, err := scanPostulacion(tx.QueryRow(ctx, insertQuery,
		p.ConvocatoriaID, p.StartupID, p.Estado, p.Respuestas))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("startup already applied to this convocatoria: %w", models.ErrConflict)
		}
		r.logger.Error("Error inserting postulacion", zap.Error(err))
		return nil, fmt.Errorf("database error inserting postulacion: %w", err)
	}

	// Seed one empty answer row per questionnaire prompt so the impact
	// form always has a complete, stable shape.
	questionQuery := `INSERT INTO impact_responses (postulacion_id, criterio, pregunta, respuesta)
	                  VALUES ($1, $2, $3, '')`
	for _, q := range questions {
		if _, err := tx.Exec(ctx, questionQuery, created.ID, q.Criterio, q.Pregunta); err != nil {
			r.logger.Error("Error seeding impact question", zap.Error(err), zap.String("criterio", q.Criterio))
			return nil, fmt.Errorf("database error seeding questionnaire: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing submit transaction: %w", err)
	}
	return created, nil
}

func (r *PostgresPostulacionRepo) GetByID(ctx context.Context, postulacionID string) (*models.Postulacion, error) {
	query := `SELECT ` + postulacionColumns + ` FROM postulaciones WHERE id = $1`
	p, err := scanPostulacion(r.pgpool.QueryRow(ctx, query, postulacionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postulacion %s not found: %w", postulacionID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching postulacion", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return nil, fmt.Errorf("database error fetching postulacion: %w", err)
	}
	return p, nil
}

func (r *PostgresPostulacionRepo) GetOwnerID(ctx context.Context, postulacionID string) (uuid.UUID, error) {
	query := `SELECT s.owner_id
	          FROM postulaciones p
	          JOIN startups s ON s.id = p.startup_id
	          WHERE p.id = $1`
	var ownerID uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, postulacionID).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("postulacion %s not found: %w", postulacionID, models.ErrNotFound)
		}
		r.logger.Error("Error resolving postulacion owner", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return uuid.Nil, fmt.Errorf("database error resolving owner: %w", err)
	}
	return ownerID, nil
}

func (r *PostgresPostulacionRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Postulacion, error) {
	query := `SELECT p.id, p.convocatoria_id, p.startup_id, p.estado, p.respuestas, p.created_at, p.updated_at
	          FROM postulaciones p
	          JOIN startups s ON s.id = p.startup_id
	          WHERE s.owner_id = $1
	          ORDER BY p.created_at DESC`
	rows, err := r.pgpool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Error listing postulaciones by owner", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("database error listing postulaciones: %w", err)
	}
	defer rows.Close()

	return collectPostulaciones(rows)
}

func (r *PostgresPostulacionRepo) List(ctx context.Context, convocatoriaID, estado string, limit, offset uint64) ([]models.Postulacion, error) {
	builder := sq.Select(postulacionColumns).
		From("postulaciones").
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		PlaceholderFormat(sq.Dollar)

	if convocatoriaID != "" {
		builder = builder.Where(sq.Eq{"convocatoria_id": convocatoriaID})
	}
	if estado != "" {
		builder = builder.Where(sq.Eq{"estado": estado})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building postulacion list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error listing postulaciones", zap.Error(err))
		return nil, fmt.Errorf("database error listing postulaciones: %w", err)
	}
	defer rows.Close()

	return collectPostulaciones(rows)
}

func (r *PostgresPostulacionRepo) UpdateEstado(ctx context.Context, postulacionID, estado string) (*models.Postulacion, error) {
	query := `UPDATE postulaciones SET estado = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + postulacionColumns
	updated, err := scanPostulacion(r.pgpool.QueryRow(ctx, query, estado, postulacionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postulacion %s not found: %w", postulacionID, models.ErrNotFound)
		}
		r.logger.Error("Error updating postulacion estado", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return nil, fmt.Errorf("database error updating postulacion estado: %w", err)
	}
	return updated, nil
}

func collectPostulaciones(rows pgx.Rows) ([]models.Postulacion, error) {
	var postulaciones []models.Postulacion
	for rows.Next() {
		p, err := scanPostulacion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning postulacion row: %w", err)
		}
		postulaciones = append(postulaciones, *p)
	}
	return postulaciones, rows.Err()
}
