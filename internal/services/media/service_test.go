package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type stubUploader struct {
	objects map[string][]byte
	putErr  error
}

func newStubUploader() *stubUploader {
	return &stubUploader{objects: make(map[string][]byte)}
}

func (s *stubUploader) PutObject(_ context.Context, _, objectName string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	s.objects[objectName] = data
	return minio.UploadInfo{Key: objectName, Size: int64(len(data))}, nil
}

func (s *stubUploader) RemoveObject(_ context.Context, _, objectName string, _ minio.RemoveObjectOptions) error {
	delete(s.objects, objectName)
	return nil
}

type stubPhotoStore struct {
	urls   map[uuid.UUID]string
	setErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{urls: make(map[uuid.UUID]string)}
}

func (s *stubPhotoStore) SetPhoto(_ context.Context, userID uuid.UUID, photoURL string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.urls[userID] = photoURL
	return nil
}

func newMediaService(uploader *stubUploader, photos *stubPhotoStore) *Service {
	return NewService(uploader, photos, Config{
		Bucket:    "connections-photos",
		Endpoint:  "localhost:9000",
		MaxUpload: 1024,
	})
}

func TestUploadProfilePhoto(t *testing.T) {
	uploader := newStubUploader()
	photos := newStubPhotoStore()
	svc := newMediaService(uploader, photos)

	userID := uuid.New()
	payload := []byte("fake-jpeg-bytes")

	url, err := svc.UploadProfilePhoto(context.Background(), userID, bytes.NewReader(payload), int64(len(payload)), "image/jpeg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:9000/connections-photos/profiles/"+userID.String()+"/") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("expected .jpg suffix, got %q", url)
	}
	if photos.urls[userID] != url {
		t.Fatal("expected url recorded on profile")
	}
	if len(uploader.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(uploader.objects))
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	svc := newMediaService(newStubUploader(), newStubPhotoStore())
	userID := uuid.New()
	payload := bytes.NewReader([]byte("data"))

	if _, err := svc.UploadProfilePhoto(context.Background(), userID, payload, 4, "application/pdf"); !errors.Is(err, ErrUnsupportedContent) {
		t.Fatalf("expected ErrUnsupportedContent, got %v", err)
	}
	if _, err := svc.UploadProfilePhoto(context.Background(), userID, payload, 2048, "image/png"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := svc.UploadProfilePhoto(context.Background(), userID, payload, 0, "image/png"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge for empty body, got %v", err)
	}
}

func TestUploadRollsBackOrphanObject(t *testing.T) {
	uploader := newStubUploader()
	photos := newStubPhotoStore()
	photos.setErr = errors.New("db down")
	svc := newMediaService(uploader, photos)

	payload := []byte("fake-png")
	_, err := svc.UploadProfilePhoto(context.Background(), uuid.New(), bytes.NewReader(payload), int64(len(payload)), "image/png")
	if err == nil {
		t.Fatal("expected error when profile update fails")
	}
	if len(uploader.objects) != 0 {
		t.Fatal("orphan object must be removed after failed profile update")
	}
}

func TestRemoveProfilePhoto(t *testing.T) {
	uploader := newStubUploader()
	photos := newStubPhotoStore()
	svc := newMediaService(uploader, photos)

	userID := uuid.New()
	payload := []byte("fake-webp")
	url, err := svc.UploadProfilePhoto(context.Background(), userID, bytes.NewReader(payload), int64(len(payload)), "image/webp")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.RemoveProfilePhoto(context.Background(), userID, url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if photos.urls[userID] != "" {
		t.Fatal("expected photo url cleared")
	}
	if len(uploader.objects) != 0 {
		t.Fatal("expected object deleted")
	}

	// Foreign URLs are left alone.
	if err := svc.RemoveProfilePhoto(context.Background(), userID, "https://elsewhere.example/p.jpg"); err != nil {
		t.Fatalf("remove foreign url: %v", err)
	}
}
