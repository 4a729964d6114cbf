package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/himalayan-naturals/storefront-backend/pkg/config"
	"github.com/himalayan-naturals/storefront-backend/pkg/gcp"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

const (
	pingTimeout        = 5 * time.Second
	defaultPublicBase  = "https://storage.googleapis.com"
	publicCacheControl = "public, max-age=31536000"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type Client struct {
	svc           *storage.Service
	defaultBucket string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes an uploaded object and where the public can fetch it.
type Object struct {
	Bucket    string
	Name      string
	PublicURL string
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcpCfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	opts := append(gcp.ClientOptions(gcpCfg), option.WithScopes(storage.DevstorageReadWriteScope))
	client, err := newClient(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

func newClient(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = defaultPublicBase
	}
	return &Client{svc: svc, defaultBucket: bucket, publicBaseURL: base}, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Ping fetches bucket metadata, which needs storage.buckets.get.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.svc.Buckets.Get(c.defaultBucket).Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("gcs bucket check failed: %d %s", apiErr.Code, strings.TrimSpace(apiErr.Message))
		}
		return fmt.Errorf("gcs bucket check failed: %w", err)
	}
	return nil
}

// Upload streams body into bucket/name. An empty bucket means the default bucket.
func (c *Client) Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) (*Object, error) {
	if c == nil || c.svc == nil {
		return nil, errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("object name is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = c.defaultBucket
	}

	obj := &storage.Object{
		Name:         name,
		ContentType:  contentType,
		CacheControl: publicCacheControl,
	}
	call := c.svc.Objects.Insert(bucket, obj).Context(ctx)
	if contentType != "" {
		call = call.Media(body, googleapi.ContentType(contentType))
	} else {
		call = call.Media(body)
	}
	stored, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("upload %s/%s: %w", bucket, name, err)
	}
	return &Object{
		Bucket:    stored.Bucket,
		Name:      stored.Name,
		PublicURL: c.PublicURL(stored.Bucket, stored.Name),
	}, nil
}

// PublicURL builds <base>/<bucket>/<object> with the object name path-escaped.
func (c *Client) PublicURL(bucket, name string) string {
	base := defaultPublicBase
	if c != nil && c.publicBaseURL != "" {
		base = c.publicBaseURL
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, url.PathEscape(name))
}

// ObjectName prefixes the upload time in unix milliseconds and collapses
// whitespace runs in the original filename to underscores.
func ObjectName(filename string, now time.Time) string {
	clean := whitespaceRun.ReplaceAllString(strings.TrimSpace(filename), "_")
	if clean == "" {
		clean = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), clean)
}
