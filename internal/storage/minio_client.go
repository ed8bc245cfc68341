package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"talehub/internal/config"
)

// Storage abstracts the object store over the fixed buckets.
type Storage interface {
	Upload(ctx context.Context, bucket, ownerID, fileName string, file io.Reader, size int64) (string, string, error)
	Delete(ctx context.Context, bucket, objectName string) error
	// ResolveURL turns a stored value into a retrievable URL. Absolute
	// URLs pass through unchanged, so re-resolving is a no-op.
	ResolveURL(bucket, pathOrURL string) string
}

type MinIOClient struct {
	client *minio.Client
	cfg    *config.Config
}

func NewMinIOClient(cfg *config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinIOClient{client: client, cfg: cfg}, nil
}

// Upload stores the file under ownerID/ and returns the object name and
// its public URL.
func (m *MinIOClient) Upload(ctx context.Context, bucket, ownerID, fileName string, file io.Reader, size int64) (string, string, error) {
	fileExt := strings.ToLower(filepath.Ext(fileName))
	if fileExt == "" {
		fileExt = ".bin"
	}

	contentType := mime.TypeByExtension(fileExt)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	objectName := fmt.Sprintf("%s/%d_%s%s", ownerID, now.UnixMilli(), uuid.New().String()[:8], fileExt)

	_, err := m.client.PutObject(ctx, bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"owner-id":          ownerID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to bucket %s: %w", bucket, err)
	}

	return objectName, m.ResolveURL(bucket, objectName), nil
}

func (m *MinIOClient) Delete(ctx context.Context, bucket, objectName string) error {
	err := m.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete from bucket %s: %w", bucket, err)
	}
	return nil
}

func (m *MinIOClient) ResolveURL(bucket, pathOrURL string) string {
	return ResolveURL(m.cfg.MinIO.PublicBaseURL, bucket, pathOrURL)
}

// ResolveURL rewrites a storage-relative path into a public URL.
// Values that are already absolute URLs are returned as-is.
func ResolveURL(baseURL, bucket, pathOrURL string) string {
	if pathOrURL == "" {
		return ""
	}
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	cleaned := strings.TrimPrefix(pathOrURL, "/")
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(baseURL, "/"), bucket, cleaned)
}
