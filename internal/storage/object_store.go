package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/config"
)

var ErrEmptyPath = errors.New("empty object path")

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// FileStore is the binary file collaborator: posts only carry the path it returns.
type FileStore interface {
	UploadFile(ctx context.Context, name, mime string, data []byte, onProgress ProgressFunc) (string, error)
	FileURL(ctx context.Context, path string, sizeHint int64, mime string) (string, error)
}

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// UploadFile stores data under name and returns the object path to record on the post.
// onProgress is called with non-decreasing values and always ends at 100 on success.
func (s *ObjectStore) UploadFile(ctx context.Context, name, mime string, data []byte, onProgress ProgressFunc) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}
	path := objectPath(s.cfg.Prefix, name)

	progress := newProgressReader(int64(len(data)), onProgress)
	progress.report(0)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mime,
		Progress:    progress,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %v: %w", path, err, apperr.ErrTransient)
	}

	progress.report(100)
	return path, nil
}

// FileURL resolves a displayable URL for path. A configured public base URL wins over
// presigning; sizeHint is accepted for parity with the storage collaborator and unused here.
func (s *ObjectStore) FileURL(ctx context.Context, path string, sizeHint int64, mime string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + strings.TrimLeft(path, "/"), nil
	}

	params := url.Values{}
	if mime != "" {
		params.Set("response-content-type", mime)
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, path, s.presignTTL(), params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %v: %w", path, err, apperr.ErrTransient)
	}
	return u.String(), nil
}

// Ping is used by the health check.
func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err
}

func (s *ObjectStore) presignTTL() time.Duration {
	if s.cfg.PresignTTL <= 0 {
		return 15 * time.Minute
	}
	return s.cfg.PresignTTL
}

func objectPath(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
