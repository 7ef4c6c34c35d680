package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

type fakeObject struct {
	*bytes.Reader
	info    minio.ObjectInfo
	statErr error
	closed  bool
}

func (o *fakeObject) Stat() (minio.ObjectInfo, error) { return o.info, o.statErr }
func (o *fakeObject) Close() error                    { o.closed = true; return nil }

// mockAPI routes each call to an optional function field.
type mockAPI struct {
	bucketExistsFn func(ctx context.Context, bucket string) (bool, error)
	makeBucketFn   func(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	lifecycleFn    func(ctx context.Context, bucket string, cfg *lifecycle.Configuration) error
	listFn         func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	presignFn      func(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error)
	putFn          func(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	getFn          func(ctx context.Context, bucket, key string) (ObjectReader, error)
	removeFn       func(ctx context.Context, bucket, key string) error
	statFn         func(ctx context.Context, bucket, key string) (minio.ObjectInfo, error)
}

func (m *mockAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if m.bucketExistsFn == nil {
		return true, nil
	}
	return m.bucketExistsFn(ctx, bucket)
}

func (m *mockAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	if m.makeBucketFn == nil {
		return nil
	}
	return m.makeBucketFn(ctx, bucket, opts)
}

func (m *mockAPI) SetBucketLifecycle(ctx context.Context, bucket string, cfg *lifecycle.Configuration) error {
	if m.lifecycleFn == nil {
		return nil
	}
	return m.lifecycleFn(ctx, bucket, cfg)
}

func (m *mockAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return m.listFn(ctx, bucket, opts)
}

func (m *mockAPI) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, _ url.Values) (*url.URL, error) {
	return m.presignFn(ctx, bucket, key, expiry)
}

func (m *mockAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.putFn(ctx, bucket, key, r, size, opts)
}

func (m *mockAPI) GetObject(ctx context.Context, bucket, key string, _ minio.GetObjectOptions) (ObjectReader, error) {
	return m.getFn(ctx, bucket, key)
}

func (m *mockAPI) RemoveObject(ctx context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	return m.removeFn(ctx, bucket, key)
}

func (m *mockAPI) StatObject(ctx context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.statFn(ctx, bucket, key)
}

var errNoSuchKey = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

//Personal.AI order the ending
