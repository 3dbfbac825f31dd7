package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ DocumentRepo = (*PostgresDocumentRepo)(nil)

type DocumentRepo interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, documentID string) (*models.Document, error)
	ListByStartup(ctx context.Context, startupID string) ([]models.Document, error)
}

type PostgresDocumentRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresDocumentRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{logger: logger, pgpool: pgpool}
}

const documentColumns = `id, startup_id, s3_key, filename, content_type, size_bytes, uploaded_by, created_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.StartupID, &d.S3Key, &d.Filename, &d.ContentType,
		&d.SizeBytes, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresDocumentRepo) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query := `INSERT INTO documents (startup_id, s3_key, filename, content_type, size_bytes, uploaded_by)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING ` + documentColumns
	created, err := scanDocument(r.pgpool.QueryRow(ctx, query,
		doc.StartupID, doc.S3Key, doc.Filename, doc.ContentType, doc.SizeBytes, doc.UploadedBy))
	if err != nil {
		r.logger.Error("Error inserting document", zap.Error(err))
		return nil, fmt.Errorf("database error inserting document: %w", err)
	}
	return created, nil
}

func (r *PostgresDocumentRepo) GetByID(ctx context.Context, documentID string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.pgpool.QueryRow(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s not found: %w", documentID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching document", zap.Error(err), zap.String("document_id", documentID))
		return nil, fmt.Errorf("database error fetching document: %w", err)
	}
	return doc, nil
}

func (r *PostgresDocumentRepo) ListByStartup(ctx context.Context, startupID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE startup_id = $1 ORDER BY created_at DESC`
	rows, err := r.pgpool.Query(ctx, query, startupID)
	if err != nil {
		r.logger.Error("Error listing documents", zap.Error(err), zap.String("startup_id", startupID))
		return nil, fmt.Errorf("database error listing documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}
