package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/middleware"
	"github.com/impulsalab/convoca/internal/app/models"
	"github.com/impulsalab/convoca/internal/app/observability/metrics"
	"github.com/impulsalab/convoca/internal/pkg/config"
)

type DocumentHandlers struct {
	documentService DocumentService
	cfg             *config.Config
	logger          *zap.Logger
}

func NewDocumentHandlers(documentService DocumentService, cfg *config.Config, logger *zap.Logger) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService, cfg: cfg, logger: logger}
}

// Upload accepts a multipart form with a "file" part and a startup_id field.
func (h *DocumentHandlers) Upload(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}
	if err := models.Authorize(claims, models.CapUploadDocuments); err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	startupID := c.PostForm("startup_id")
	if startupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startup_id is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 20MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		models.RespondError(c, h.logger, models.ErrBadRequest)
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), claims, UploadInput{
		StartupID:   startupID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}

	metrics.Get().DocumentUploadsTotal.Add(c.Request.Context(), 1)
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandlers) ListForStartup(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	docs, err := h.documentService.ListForStartup(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentos": docs})
}

// Download redirects to a short-lived presigned URL.
func (h *DocumentHandlers) Download(c *gin.Context) {
	claims, err := middleware.VerifySession(c, h.cfg.JWT.SecretKey)
	if err != nil {
		models.RespondError(c, h.logger, models.ErrUnauthenticated)
		return
	}

	url, err := h.documentService.DownloadURL(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		models.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
