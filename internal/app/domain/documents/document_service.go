package documents

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/domain/startup"
	"github.com/impulsalab/convoca/internal/app/models"
)

var _ DocumentService = (*DocumentServiceImpl)(nil)

// MaxUploadBytes caps pitch-deck uploads at 20 MB.
const MaxUploadBytes = 20 << 20

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// UploadInput describes one incoming file.
type UploadInput struct {
	StartupID   string
	Filename    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

type DocumentService interface {
	Upload(ctx context.Context, claims *models.Claims, input UploadInput) (*models.Document, error)
	ListForStartup(ctx context.Context, startupID string, claims *models.Claims) ([]models.Document, error)
	// DownloadURL returns a short-lived presigned link for the stored file.
	DownloadURL(ctx context.Context, documentID string, claims *models.Claims) (string, error)
}

type DocumentServiceImpl struct {
	logger      *zap.Logger
	repo        DocumentRepo
	startupRepo startup.StartupRepo
	storage     ObjectStorage
}

func NewDocumentService(repo DocumentRepo, startupRepo startup.StartupRepo, storage ObjectStorage, logger *zap.Logger) *DocumentServiceImpl {
	return &DocumentServiceImpl{logger: logger, repo: repo, startupRepo: startupRepo, storage: storage}
}

func (s *DocumentServiceImpl) Upload(ctx context.Context, claims *models.Claims, input UploadInput) (*models.Document, error) {
	l := s.logger.With(zap.String("method", "Upload"), zap.String("startup_id", input.StartupID))

	if input.Filename == "" {
		return nil, fmt.Errorf("filename is required: %w", models.ErrValidation)
	}
	if !allowedContentTypes[input.ContentType] {
		return nil, fmt.Errorf("content type %q is not allowed: %w", input.ContentType, models.ErrValidation)
	}
	if input.SizeBytes <= 0 || input.SizeBytes > MaxUploadBytes {
		return nil, fmt.Errorf("file size must be between 1 byte and 20MB: %w", models.ErrValidation)
	}

	st, err := s.startupRepo.GetByID(ctx, input.StartupID)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin && st.OwnerID.String() != claims.UserID {
		return nil, fmt.Errorf("startup belongs to another user: %w", models.ErrForbidden)
	}

	uploadedBy, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in session: %w", models.ErrBadRequest)
	}

	key := fmt.Sprintf("startups/%s/%s%s", st.ID, uuid.NewString(), path.Ext(input.Filename))
	if err := s.storage.Put(ctx, key, input.ContentType, input.Body, input.SizeBytes); err != nil {
		l.Error("Object upload failed", zap.Error(err))
		return nil, fmt.Errorf("storing document: %v: %w", err, models.ErrUpstream)
	}

	doc, err := s.repo.Create(ctx, &models.Document{
		StartupID:   st.ID,
		S3Key:       key,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		return nil, err
	}

	l.Info("Document uploaded", zap.String("document_id", doc.ID.String()), zap.Int64("size_bytes", doc.SizeBytes))
	return doc, nil
}

func (s *DocumentServiceImpl) ListForStartup(ctx context.Context, startupID string, claims *models.Claims) ([]models.Document, error) {
	st, err := s.startupRepo.GetByID(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin && st.OwnerID.String() != claims.UserID {
		return nil, fmt.Errorf("startup belongs to another user: %w", models.ErrForbidden)
	}
	return s.repo.ListByStartup(ctx, startupID)
}

func (s *DocumentServiceImpl) DownloadURL(ctx context.Context, documentID string, claims *models.Claims) (string, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	st, err := s.startupRepo.GetByID(ctx, doc.StartupID.String())
	if err != nil {
		return "", err
	}
	if claims.Role != models.RoleAdmin && st.OwnerID.String() != claims.UserID {
		return "", fmt.Errorf("document belongs to another user: %w", models.ErrForbidden)
	}

	url, err := s.storage.PresignGet(ctx, doc.S3Key)
	if err != nil {
		s.logger.Error("Presigning download failed", zap.Error(err), zap.String("document_id", documentID))
		return "", fmt.Errorf("presigning document: %v: %w", err, models.ErrUpstream)
	}
	return url, nil
}
