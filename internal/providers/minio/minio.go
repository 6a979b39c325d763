package minio

import (
	"backend/internal/config"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioProvider is the attachment blob store. It hands out opaque file IDs;
// the mapping from file ID to object name is deterministic so a stored blob
// can be located again without a database row.
type MinioProvider struct {
	client    *minio.Client
	bucket    string
	maxSize   int64
	logger    *zap.Logger
	publicURL string
}

type StoredObject struct {
	FileID      string `json:"file_id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	ObjectName  string `json:"object_name"`
}

func NewMinioProvider(cfg *config.Config, logger *zap.Logger) (*MinioProvider, error) {
	minioURL := cfg.MinioURL
	if !strings.HasPrefix(minioURL, "http://") && !strings.HasPrefix(minioURL, "https://") {
		minioURL = "https://" + minioURL
	}

	u, err := url.Parse(minioURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse minio URL: %w", err)
	}
	secure := u.Scheme == "https"

	logger.Info("Initializing MinIO", zap.String("url", minioURL), zap.Bool("secure", secure))

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: false},
	}
	tr.MaxIdleConnsPerHost = 256

	client, err := minio.New(u.Host, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioUser, cfg.MinioPassword, ""),
		Secure:    secure,
		Transport: tr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://%s/%s", cfg.MinioURL, cfg.MinioBucket)
	}

	provider := &MinioProvider{
		client:    client,
		bucket:    cfg.MinioBucket,
		maxSize:   cfg.MaxFileSize,
		logger:    logger,
		publicURL: publicURL,
	}

	if err := provider.ensureBucket(); err != nil {
		return nil, err
	}

	return provider, nil
}

func (m *MinioProvider) ensureBucket() error {
	ctx := context.Background()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		m.logger.Info("Created MinIO bucket", zap.String("bucket", m.bucket))
	}

	return nil
}

// Store writes raw attachment bytes and returns a StoredObject whose FileID
// is the opaque identifier persisted inside message content.
func (m *MinioProvider) Store(ctx context.Context, data []byte, name, contentType string) (*StoredObject, error) {
	if int64(len(data)) > m.maxSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size of %d MB", m.maxSize/(1024*1024))
	}

	if contentType == "" {
		contentType = detectContentType(filepath.Ext(name))
	}

	fileID := uuid.New().String()
	objectName := objectNameFor(fileID, name)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	m.logger.Info("Stored attachment",
		zap.String("file_id", fileID),
		zap.String("object_name", objectName),
		zap.Int("size", len(data)),
	)

	return &StoredObject{
		FileID:      fileID,
		Name:        name,
		URL:         m.publicURL + "/" + objectName,
		Size:        int64(len(data)),
		ContentType: contentType,
		ObjectName:  objectName,
	}, nil
}

// StoreFromReader is the streaming variant used by the multipart upload endpoint.
func (m *MinioProvider) StoreFromReader(ctx context.Context, reader io.Reader, name, contentType string, size int64) (*StoredObject, error) {
	if size > m.maxSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size of %d MB", m.maxSize/(1024*1024))
	}

	if contentType == "" {
		contentType = detectContentType(filepath.Ext(name))
	}

	fileID := uuid.New().String()
	objectName := objectNameFor(fileID, name)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &StoredObject{
		FileID:      fileID,
		Name:        name,
		URL:         m.publicURL + "/" + objectName,
		Size:        size,
		ContentType: contentType,
		ObjectName:  objectName,
	}, nil
}

// Fetch reads a stored blob back by its file ID and original name.
func (m *MinioProvider) Fetch(ctx context.Context, fileID, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectNameFor(fileID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (m *MinioProvider) PresignedURL(ctx context.Context, fileID, name string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectNameFor(fileID, name), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

func (m *MinioProvider) Delete(ctx context.Context, fileID, name string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectNameFor(fileID, name), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (m *MinioProvider) GetClient() *minio.Client {
	return m.client
}

func (m *MinioProvider) GetBucket() string {
	return m.bucket
}

func (m *MinioProvider) GetPublicURL() string {
	return m.publicURL
}

func objectNameFor(fileID, name string) string {
	return fileID + "/" + filepath.Base(name)
}

func detectContentType(ext string) string {
	ext = strings.ToLower(ext)
	contentTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".mp4":  "video/mp4",
		".mp3":  "audio/mpeg",
		".pdf":  "application/pdf",
	}

	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
