package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeObjectNotFound, "object not found")
	ErrInvalidKey     = errors.New(errors.ErrCodeValidation, "object key required")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStore reads and writes the glossary, record and result objects of
// extraction jobs.  Keys are relative to the configured bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)
	PutBytes(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ResultKey is the default output object for a job: results/<jobID>.<ext>.
func ResultKey(jobID, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jsonl"
	}
	return path.Join(strings.TrimSuffix(resultsPrefix, "/"), jobID+"."+ext)
}

// ContentTypeFor guesses a content type from the key extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

type objectStore struct {
	client *Client
	logger logging.Logger
}

// NewObjectStore returns an ObjectStore over client's bucket.
func NewObjectStore(client *Client, log logging.Logger) ObjectStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &objectStore{client: client, logger: log}
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (s *objectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	api, err := s.client.handle()
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	info, err := api.PutObject(ctx, s.client.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "upload of %s failed", key)
	}
	s.logger.Debug("Object stored", logging.String("key", key), logging.Int64("size", info.Size))
	return &ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  contentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *objectStore) PutBytes(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error) {
	if contentType == "" && len(data) > 0 && path.Ext(key) == "" {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}
	return s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

func (s *objectStore) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	if key == "" {
		return nil, nil, ErrInvalidKey
	}
	api, err := s.client.handle()
	if err != nil {
		return nil, nil, err
	}
	obj, err := api.GetObject(ctx, s.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.wrapReadErr(err, key)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, s.wrapReadErr(err, key)
	}
	return obj, toObjectInfo(stat), nil
}

func (s *objectStore) GetBytes(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "download of %s failed", key)
	}
	return data, nil
}

func (s *objectStore) Exists(ctx context.Context, key string) (bool, error) {
	api, err := s.client.handle()
	if err != nil {
		return false, err
	}
	if _, err := api.StatObject(ctx, s.client.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

func (s *objectStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	api, err := s.client.handle()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, s.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "delete of %s failed", key)
	}
	return nil
}

// List returns up to limit objects under prefix; limit <= 0 means 1000.
func (s *objectStore) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	api, err := s.client.handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []ObjectInfo
	for obj := range api.ListObjects(ctx, s.client.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed")
		}
		out = append(out, *toObjectInfo(obj))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *objectStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	api, err := s.client.handle()
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = s.client.presignExpiry
	}
	u, err := api.PresignedGetObject(ctx, s.client.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed")
	}
	return u.String(), nil
}

func (s *objectStore) wrapReadErr(err error, key string) error {
	if isNotFound(err) {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrapf(err, errors.ErrCodeStorageError, "download of %s failed", key)
}

func toObjectInfo(i minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          i.Key,
		Size:         i.Size,
		ETag:         i.ETag,
		ContentType:  i.ContentType,
		LastModified: i.LastModified,
		Metadata:     i.UserMetadata,
	}
}

//Personal.AI order the ending
