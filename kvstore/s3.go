package kvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds connection settings for an S3-compatible object store
// (AWS S3, MinIO, R2, ...).
type S3Config struct {
	// Endpoint is the host[:port] of the service, e.g. "s3.amazonaws.com".
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// Prefix is prepended to every object key, e.g. "seen/".
	Prefix string
	// Transport overrides the HTTP transport, e.g. for a private CA.
	Transport http.RoundTripper
}

// S3 stores values as JSON objects in a bucket.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed store. No request is made until the first Get
// or Put.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("kvstore: s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("kvstore: s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: create s3 client: %w", err)
	}

	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ObjectKey returns the object name used for key.
func (s *S3) ObjectKey(key string) string {
	return s.prefix + key + ".json"
}

// Get downloads the object for key.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.ObjectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyS3Error(key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyS3Error(key, err)
	}
	return data, nil
}

// Put uploads value as the object for key.
func (s *S3) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.ObjectKey(key),
		bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("kvstore: put %s: %w", key, err)
	}
	return nil
}

// classifyS3Error maps a missing object to ErrNotFound and wraps the rest.
func classifyS3Error(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	}
	return fmt.Errorf("kvstore: get %s: %w", key, err)
}
