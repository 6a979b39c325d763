package upload

import (
	"net/http"
	"strings"
	"time"

	"backend/internal/providers/minio"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	minioP *minio.MinioProvider
	logger *zap.Logger
}

func NewHandler(minioP *minio.MinioProvider, logger *zap.Logger) *Handler {
	return &Handler{
		minioP: minioP,
		logger: logger,
	}
}

// Upload stores multipart files and returns their opaque file IDs. Clients
// that prefer multipart over base64-in-JSON use this before sending a
// message that references the blob.
func (h *Handler) Upload(c *gin.Context) {
	if h.minioP == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "attachment store not configured"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Error("Failed to parse multipart form", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to parse form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no files provided"})
		return
	}

	uploaded := make([]*UploadedFileResponse, 0, len(files))

	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			h.logger.Error("Failed to open file", zap.String("filename", fileHeader.Filename), zap.Error(err))
			continue
		}

		stored, err := h.minioP.StoreFromReader(
			c.Request.Context(),
			src,
			fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"),
			fileHeader.Size,
		)
		src.Close()

		if err != nil {
			h.logger.Error("Failed to upload file", zap.String("filename", fileHeader.Filename), zap.Error(err))
			continue
		}

		uploaded = append(uploaded, &UploadedFileResponse{
			FileID:      stored.FileID,
			Name:        stored.Name,
			URL:         stored.URL,
			Size:        stored.Size,
			ContentType: stored.ContentType,
		})
	}

	if len(uploaded) == 0 {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to upload any files"})
		return
	}

	c.JSON(http.StatusOK, uploaded)
}

// Download redirects to a short-lived presigned URL for the stored blob.
// The path shape matches the URLs the message codec derives for document
// attachments.
func (h *Handler) Download(c *gin.Context) {
	if h.minioP == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "attachment store not configured"})
		return
	}

	fileID := c.Param("file_id")
	name := strings.TrimPrefix(c.Param("name"), "/")
	if fileID == "" || name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file_id and name are required"})
		return
	}

	url, err := h.minioP.PresignedURL(c.Request.Context(), fileID, name, 15*time.Minute)
	if err != nil {
		h.logger.Error("Failed to presign download URL",
			zap.String("file_id", fileID),
			zap.Error(err),
		)
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		return
	}

	c.Redirect(http.StatusFound, url)
}
