package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"TrendingPress/internal/config"
	"TrendingPress/internal/ports"
)

// MinioStore saves card assets into an S3-compatible bucket.
type MinioStore struct {
	put     func(ctx context.Context, key string, data []byte, contentType string) error
	bucket  string
	baseURL string
}

var _ ports.BlobStore = (*MinioStore)(nil)

// New builds a client, normalizing the endpoint scheme, and checks that the bucket exists.
func New(ctx context.Context, cfg config.BlobConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("blob store: endpoint, bucket and credentials required")
	}

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("blob store: bucket %q does not exist", cfg.Bucket)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	store := &MinioStore{bucket: cfg.Bucket, baseURL: strings.TrimRight(baseURL, "/")}
	store.put = func(ctx context.Context, key string, data []byte, contentType string) error {
		_, err := client.PutObject(ctx, cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=31536000, immutable",
		})
		return err
	}
	return store, nil
}

// Put uploads data under key and returns its public URL.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" {
		return "", fmt.Errorf("blob store: empty object key")
	}
	if err := s.put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("blob store: put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL joins the public base with an object key.
func (s *MinioStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}
