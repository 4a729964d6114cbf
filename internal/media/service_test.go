package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/storage/gcs"
)

// 1x1 PNG header bytes are enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type stubStore struct {
	bucket      string
	name        string
	contentType string
	body        []byte
	err         error
}

func (s *stubStore) DefaultBucket() string { return "product-images" }

func (s *stubStore) Upload(_ context.Context, bucket, name, contentType string, body io.Reader) (*gcs.Object, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.bucket, s.name, s.contentType, s.body = bucket, name, contentType, data
	return &gcs.Object{Bucket: bucket, Name: name, PublicURL: "https://storage.googleapis.com/" + bucket + "/" + name}, nil
}

func newMediaService(t *testing.T, store *stubStore) *service {
	t.Helper()
	svc, err := NewService(store, logger.New(logger.Options{ServiceName: "media-test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	s := svc.(*service)
	s.now = func() time.Time { return time.UnixMilli(1772355600123) }
	return s
}

func TestUploadImageNamesObjectAndBuildsURL(t *testing.T) {
	store := &stubStore{}
	svc := newMediaService(t, store)

	out, err := svc.UploadImage(context.Background(), UploadInput{
		FileName:    "my  tulsi   photo.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(pngHeader),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if store.name != "1772355600123_my_tulsi_photo.png" {
		t.Fatalf("unexpected object name %q", store.name)
	}
	if store.bucket != "product-images" {
		t.Fatalf("expected default bucket, got %q", store.bucket)
	}
	if out.URL != "https://storage.googleapis.com/product-images/1772355600123_my_tulsi_photo.png" {
		t.Fatalf("unexpected url %q", out.URL)
	}
	if !bytes.Equal(store.body, pngHeader) {
		t.Fatal("uploaded body differs from input")
	}
}

func TestUploadImageHonoursBucketAndSniffsType(t *testing.T) {
	store := &stubStore{}
	svc := newMediaService(t, store)

	out, err := svc.UploadImage(context.Background(), UploadInput{
		FileName:    `C:\photos\oil.png`,
		ContentType: "application/octet-stream",
		Bucket:      "blog-images",
		Body:        bytes.NewReader(pngHeader),
	})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if store.bucket != "blog-images" {
		t.Fatalf("expected blog-images bucket, got %q", store.bucket)
	}
	if out.ContentType != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", out.ContentType)
	}
	if !strings.HasSuffix(store.name, "_oil.png") {
		t.Fatalf("expected path stripped from name, got %q", store.name)
	}
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	store := &stubStore{}
	svc := newMediaService(t, store)

	_, err := svc.UploadImage(context.Background(), UploadInput{
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.7"),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	if store.name != "" {
		t.Fatal("expected nothing uploaded")
	}
}

func TestUploadImageRejectsOversizeAndEmpty(t *testing.T) {
	store := &stubStore{}
	svc := newMediaService(t, store)

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadBytes)...)
	_, err := svc.UploadImage(context.Background(), UploadInput{FileName: "big.png", ContentType: "image/png", Body: bytes.NewReader(big)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.UploadImage(context.Background(), UploadInput{FileName: "empty.png", ContentType: "image/png", Body: bytes.NewReader(nil)})
	assertCode(t, err, pkgerrors.CodeValidation)
	if store.name != "" {
		t.Fatal("expected nothing uploaded")
	}
}

func TestUploadImageMapsStoreFailure(t *testing.T) {
	svc := newMediaService(t, &stubStore{err: errors.New("503")})

	_, err := svc.UploadImage(context.Background(), UploadInput{FileName: "a.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)})
	assertCode(t, err, pkgerrors.CodeDependency)
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
