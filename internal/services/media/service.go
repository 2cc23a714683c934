package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrTooLarge           = errors.New("file too large")
)

const maxPhotoBytes = 5 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Uploader is the slice of the object store API this service needs.
type Uploader interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type PhotoStore interface {
	SetPhoto(ctx context.Context, userID uuid.UUID, photoURL string) error
}

type Config struct {
	Bucket    string
	Endpoint  string
	UseSSL    bool
	MaxUpload int64
}

type Service struct {
	uploader Uploader
	photos   PhotoStore
	cfg      Config
}

func NewService(uploader Uploader, photos PhotoStore, cfg Config) *Service {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = maxPhotoBytes
	}
	return &Service{uploader: uploader, photos: photos, cfg: cfg}
}

// UploadProfilePhoto streams one photo into the bucket under a fresh
// key, records its public URL on the profile, and returns that URL.
// The previous photo object is left in place; keys are unique so a
// client holding the old URL keeps a working image.
func (s *Service) UploadProfilePhoto(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error) {
	if userID == uuid.Nil || reader == nil {
		return "", ErrInvalidInput
	}
	if size <= 0 || size > s.cfg.MaxUpload {
		return "", ErrTooLarge
	}
	ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedContent
	}

	objectName := path.Join("profiles", userID.String(), uuid.NewString()+ext)
	if _, err := s.uploader.PutObject(ctx, s.cfg.Bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	url := s.publicURL(objectName)
	if err := s.photos.SetPhoto(ctx, userID, url); err != nil {
		// Roll the orphan object back so the bucket does not collect
		// photos no profile points at.
		_ = s.uploader.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{})
		return "", fmt.Errorf("record photo url: %w", err)
	}

	return url, nil
}

// RemoveProfilePhoto clears the photo URL and deletes the object when
// the URL points into our bucket.
func (s *Service) RemoveProfilePhoto(ctx context.Context, userID uuid.UUID, currentURL string) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}

	if err := s.photos.SetPhoto(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear photo url: %w", err)
	}

	if objectName, ok := s.objectNameFromURL(currentURL); ok {
		if err := s.uploader.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove photo object: %w", err)
		}
	}
	return nil
}

func (s *Service) publicURL(objectName string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, objectName)
}

func (s *Service) objectNameFromURL(url string) (string, bool) {
	prefix := s.publicURL("")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
