package documents

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, documentID string) (*models.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepo) ListByStartup(ctx context.Context, startupID string) ([]models.Document, error) {
	args := m.Called(ctx, startupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Document), args.Error(1)
}

type stubStartupRepo struct {
	startup *models.Startup
}

func (s *stubStartupRepo) Create(ctx context.Context, st *models.Startup) (*models.Startup, error) {
	return nil, nil
}
func (s *stubStartupRepo) GetByID(ctx context.Context, id string) (*models.Startup, error) {
	return s.startup, nil
}
func (s *stubStartupRepo) GetByOwner(ctx context.Context, ownerID string) ([]models.Startup, error) {
	return nil, nil
}
func (s *stubStartupRepo) Update(ctx context.Context, st *models.Startup) (*models.Startup, error) {
	return nil, nil
}
func (s *stubStartupRepo) List(ctx context.Context, sector, q string, limit, offset uint64) ([]models.Startup, error) {
	return nil, nil
}

type fakeStorage struct {
	putErr  error
	url     string
	putKeys []string
}

func (f *fakeStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeStorage) PresignGet(ctx context.Context, key string) (string, error) {
	return f.url, nil
}

func TestUpload(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ownerID := uuid.New()
	st := &models.Startup{ID: uuid.New(), OwnerID: ownerID}
	ownerClaims := &models.Claims{UserID: ownerID.String(), Role: models.RoleUsuario, IsRegistered: true}

	validInput := func() UploadInput {
		return UploadInput{
			StartupID:   st.ID.String(),
			Filename:    "deck.pdf",
			ContentType: "application/pdf",
			SizeBytes:   1024,
			Body:        strings.NewReader("pdf bytes"),
		}
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		storage := &fakeStorage{url: "https://s3.example.com/signed"}
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, storage, logger)

		created := &models.Document{ID: uuid.New(), StartupID: st.ID, Filename: "deck.pdf"}
		mockRepo.On("Create", ctx, mock.MatchedBy(func(d *models.Document) bool {
			return d.StartupID == st.ID && d.UploadedBy == ownerID && strings.HasSuffix(d.S3Key, ".pdf")
		})).Return(created, nil).Once()

		doc, err := service.Upload(ctx, ownerClaims, validInput())

		assert.NoError(t, err)
		assert.Equal(t, created.ID, doc.ID)
		assert.Len(t, storage.putKeys, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DisallowedContentType", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{}, logger)

		input := validInput()
		input.ContentType = "application/zip"
		_, err := service.Upload(ctx, ownerClaims, input)

		assert.ErrorIs(t, err, models.ErrValidation)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("OversizedFileRejected", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{}, logger)

		input := validInput()
		input.SizeBytes = MaxUploadBytes + 1
		_, err := service.Upload(ctx, ownerClaims, input)

		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("StrangerIsForbidden", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{}, logger)

		stranger := &models.Claims{UserID: uuid.NewString(), Role: models.RoleUsuario, IsRegistered: true}
		_, err := service.Upload(ctx, stranger, validInput())

		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("StorageFailureIsUpstream", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{putErr: assert.AnError}, logger)

		_, err := service.Upload(ctx, ownerClaims, validInput())

		assert.ErrorIs(t, err, models.ErrUpstream)
		mockRepo.AssertNotCalled(t, "Create")
	})
}

func TestDownloadURL(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ownerID := uuid.New()
	st := &models.Startup{ID: uuid.New(), OwnerID: ownerID}
	doc := &models.Document{ID: uuid.New(), StartupID: st.ID, S3Key: "startups/x/deck.pdf"}

	t.Run("OwnerGetsPresignedURL", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{url: "https://s3.example.com/signed"}, logger)

		mockRepo.On("GetByID", ctx, doc.ID.String()).Return(doc, nil).Once()

		claims := &models.Claims{UserID: ownerID.String(), Role: models.RoleUsuario, IsRegistered: true}
		url, err := service.DownloadURL(ctx, doc.ID.String(), claims)

		assert.NoError(t, err)
		assert.Equal(t, "https://s3.example.com/signed", url)
	})

	t.Run("StrangerIsForbidden", func(t *testing.T) {
		mockRepo := new(MockDocumentRepo)
		service := NewDocumentService(mockRepo, &stubStartupRepo{startup: st}, &fakeStorage{}, logger)

		mockRepo.On("GetByID", ctx, doc.ID.String()).Return(doc, nil).Once()

		claims := &models.Claims{UserID: uuid.NewString(), Role: models.RoleUsuario, IsRegistered: true}
		_, err := service.DownloadURL(ctx, doc.ID.String(), claims)

		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
