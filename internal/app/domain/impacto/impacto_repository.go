package impacto

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ ImpactoRepo = (*PostgresImpactoRepo)(nil)

type ImpactoRepo interface {
	ListByPostulacion(ctx context.Context, postulacionID string) ([]models.ImpactResponse, error)
	// SaveRespuesta fills in the answer for one seeded questionnaire row.
	SaveRespuesta(ctx context.Context, postulacionID, criterio, pregunta, respuesta string) error
	// EvaluationExists reports whether the postulación has already been scored.
	EvaluationExists(ctx context.Context, postulacionID string) (bool, error)
}

type PostgresImpactoRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresImpactoRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresImpactoRepo {
	return &PostgresImpactoRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresImpactoRepo) ListByPostulacion(ctx context.Context, postulacionID string) ([]models.ImpactResponse, error) {
	query := `SELECT id, postulacion_id, criterio, pregunta, respuesta, created_at
	          FROM impact_responses
	          WHERE postulacion_id = $1
	          ORDER BY criterio, pregunta`
	rows, err := r.pgpool.Query(ctx, query, postulacionID)
	if err != nil {
		r.logger.Error("Error listing impact responses", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return nil, fmt.Errorf("database error listing impact responses: %w", err)
	}
	defer rows.Close()

	var responses []models.ImpactResponse
	for rows.Next() {
		var ir models.ImpactResponse
		if err := rows.Scan(&ir.ID, &ir.PostulacionID, &ir.Criterio, &ir.Pregunta, &ir.Respuesta, &ir.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning impact response row: %w", err)
		}
		responses = append(responses, ir)
	}
	return responses, rows.Err()
}

func (r *PostgresImpactoRepo) SaveRespuesta(ctx context.Context, postulacionID, criterio, pregunta, respuesta string) error {
	query := `UPDATE impact_responses
	          SET respuesta = $1
	          WHERE postulacion_id = $2 AND criterio = $3 AND pregunta = $4`
	tag, err := r.pgpool.Exec(ctx, query, respuesta, postulacionID, criterio, pregunta)
	if err != nil {
		r.logger.Error("Error saving impact response", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return fmt.Errorf("database error saving impact response: %w", err)
	}
	// The question set is seeded at submit time; an unknown prompt is a
	// client mistake, not a missing row to create.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %q not part of the questionnaire: %w", pregunta, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresImpactoRepo) EvaluationExists(ctx context.Context, postulacionID string) (bool, error) {
	query := `SELECT 1 FROM evaluaciones WHERE postulacion_id = $1`
	var one int
	err := r.pgpool.QueryRow(ctx, query, postulacionID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error("Error checking evaluacion existence", zap.Error(err), zap.String("postulacion_id", postulacionID))
		return false, fmt.Errorf("database error checking evaluacion: %w", err)
	}
	return true, nil
}
