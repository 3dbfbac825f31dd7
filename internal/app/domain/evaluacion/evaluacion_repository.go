package evaluacion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ EvaluacionRepo = (*PostgresEvaluacionRepo)(nil)

type EvaluacionRepo interface {
	// Create stores the evaluación and moves the postulación to en_revision
	// in one transaction. A second evaluación for the same postulación is a
	// conflict.
	Create(ctx context.Context, ev *models.Evaluacion) (*models.Evaluacion, error)
	GetByPostulacion(ctx context.Context, postulacionID string) (*models.Evaluacion, error)
}

type PostgresEvaluacionRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresEvaluacionRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresEvaluacionRepo {
	return &PostgresEvaluacionRepo{logger: logger, pgpool: pgpool}
}

const evaluacionColumns = `id, postulacion_id, model_name, criterios, puntaje_total, umbral, aprobada, generada_por, created_at`

func scanEvaluacion(row pgx.Row) (*models.Evaluacion, error) {
	var ev models.Evaluacion
	var criterios []byte
	err := row.Scan(&ev.ID, &ev.PostulacionID, &ev.ModelName, &criterios,
		&ev.PuntajeTotal, &ev.Umbral, &ev.Aprobada, &ev.GeneradaPor, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criterios, &ev.Criterios); err != nil {
		return nil, fmt.Errorf("decoding criterios: %w", err)
	}
	return &ev, nil
}

func (r *PostgresEvaluacionRepo) Create(ctx context.Context, ev *models.Evaluacion) (*models.Evaluacion, error) {
	criterios, err := json.Marshal(ev.Criterios)
	if err != nil {
		return nil, fmt.Errorf("encoding criterios: %w", err)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning evaluacion transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `INSERT INTO evaluaciones (postulacion_id, model_name, criterios, puntaje_total, umbral, aprobada, generada_por)
	                VALUES ($1, $2, $3, $4, $5, $6, $7)
	                RETURNING ` + evaluacionColumns
	created, err := scanEvaluacion(tx.QueryRow(ctx, insertQuery,
		ev.PostulacionID, ev.ModelName, criterios, ev.PuntajeTotal, ev.Umbral, ev.Aprobada, ev.GeneradaPor))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("postulacion %s is already evaluated: %w", ev.PostulacionID, models.ErrConflict)
		}
		r.logger.Error("Error inserting evaluacion", zap.Error(err))
		return nil, fmt.Errorf("database error inserting evaluacion: %w", err)
	}

	estadoQuery := `UPDATE postulaciones SET estado = $1, updated_at = NOW() WHERE id = $2 AND estado = $3`
	if _, err := tx.Exec(ctx, estadoQuery, models.PostulacionEnRevision, ev.PostulacionID, models.PostulacionEnviada); err != nil {
		r.logger.Error("Error moving postulacion to en_revision", zap.Error(err))
		return nil, fmt.Errorf("database error updating postulacion estado: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing evaluacion transaction: %w", err)
	}
	return created, nil
}

func (r *PostgresEvaluacionRepo) GetByPostulacion(ctx context.Context, postulacionID string) (*models.Evaluacion, error) {
	query := `SELECT ` + evaluacionColumns + ` FROM evaluaciones WHERE postulacion_id = $1`
	ev, err := scanEvaluacion(r.pgpool.QueryRow(ctx, query, postulacionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("evaluacion for postulacion %s not found: %w", postulacionID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching evaluacion", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return nil, fmt.Errorf("database error fetching evaluacion: %w", err)
	}
	return ev, nil
}
