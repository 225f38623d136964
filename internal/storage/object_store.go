package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tierimage/internal/config"
)

type Bucket int

const (
	Originals Bucket = iota
	Variants
)

func (b Bucket) String() string {
	if b == Variants {
		return "variants"
	}
	return "originals"
}

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// Objects is the file collaborator: raw bytes in, stable keys and links out.
type Objects interface {
	Put(ctx context.Context, bucket Bucket, key string, data []byte, contentType string) error
	Get(ctx context.Context, bucket Bucket, key string) ([]byte, error)
	Remove(ctx context.Context, bucket Bucket, keys ...string) error
	List(ctx context.Context, bucket Bucket, prefix string) ([]ObjectInfo, error)
	URL(bucket Bucket, key string) string
	PresignedURL(ctx context.Context, bucket Bucket, key string, expiry time.Duration) (string, error)
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

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.BucketOriginals, s.cfg.BucketVariants} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *ObjectStore) bucketName(b Bucket) string {
	if b == Variants {
		return s.cfg.BucketVariants
	}
	return s.cfg.BucketOriginals
}

func (s *ObjectStore) Put(ctx context.Context, bucket Bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName(bucket), key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, bucket Bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName(bucket), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *ObjectStore) Remove(ctx context.Context, bucket Bucket, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucketName(bucket), key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove object %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *ObjectStore) List(ctx context.Context, bucket Bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucketName(bucket), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		out = append(out, ObjectInfo{Key: obj.Key, LastModified: obj.LastModified})
	}
	return out, nil
}

func (s *ObjectStore) URL(bucket Bucket, key string) string {
	base := s.cfg.PublicURL
	if base == "" {
		base = s.cfg.Endpoint
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.bucketName(bucket), key)
}

func (s *ObjectStore) PresignedURL(ctx context.Context, bucket Bucket, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName(bucket), key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *ObjectStore) Client() *minio.Client {
	return s.client
}

func ParseBucket(name string) (Bucket, error) {
	switch name {
	case "originals":
		return Originals, nil
	case "variants":
		return Variants, nil
	}
	return 0, fmt.Errorf("unknown bucket %q", name)
}
