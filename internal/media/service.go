package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/storage/gcs"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 * 1024 * 1024

const sniffLen = 512

type objectStore interface {
	Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) (*gcs.Object, error)
	DefaultBucket() string
}

// Service stores product and blog images in object storage.
type Service interface {
	UploadImage(ctx context.Context, input UploadInput) (*UploadOutput, error)
}

// UploadInput describes one image upload. An empty Bucket means the default bucket.
type UploadInput struct {
	FileName    string
	ContentType string
	Bucket      string
	Body        io.Reader
}

// UploadOutput is returned to the client after a successful upload.
type UploadOutput struct {
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	Object      string `json:"object"`
	ContentType string `json:"contentType"`
}

type service struct {
	store objectStore
	logg  *logger.Logger
	now   func() time.Time
}

// NewService constructs a media service backed by the provided object store.
func NewService(store objectStore, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, logg: logg, now: time.Now}, nil
}

func (s *service) UploadImage(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	fileName := sanitizeFileName(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if len(data) > MaxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be at most %d bytes", MaxUploadBytes))
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mediaType, err := resolveMimeType(input.ContentType, head)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}
	if !isAllowedImage(mediaType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only images are accepted: "+allowedMimeDescription())
	}

	bucket := strings.TrimSpace(input.Bucket)
	if bucket == "" {
		bucket = s.store.DefaultBucket()
	}
	name := gcs.ObjectName(fileName, s.now())
	obj, err := s.store.Upload(ctx, bucket, name, mediaType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"bucket": obj.Bucket,
		"object": obj.Name,
		"bytes":  len(data),
	}), "media.uploaded")
	return &UploadOutput{
		URL:         obj.PublicURL,
		Bucket:      obj.Bucket,
		Object:      obj.Name,
		ContentType: mediaType,
	}, nil
}

// sanitizeFileName keeps the base name and drops path separators and control
// characters. Whitespace is left for the object naming step.
func sanitizeFileName(name string) string {
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		if r == '/' || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
