package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/rostertag/internal/config"
	pkgerrors "github.com/turtacn/rostertag/pkg/errors"
)

type StoreTestSuite struct {
	suite.Suite
	api    *mockAPI
	client *Client
	store  ObjectStore
	ctx    context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.api = &mockAPI{}
	s.client = NewClientWithAPI(s.api, config.MinIOConfig{Bucket: "jobs", PresignExpiry: time.Minute}, nil)
	s.store = NewObjectStore(s.client, nil)
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TestPutBytes() {
	var gotBody []byte
	s.api.putFn = func(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
		s.Equal("jobs", bucket)
		s.Equal("results/j1.csv", key)
		s.Equal("text/csv", opts.ContentType)
		gotBody, _ = io.ReadAll(r)
		return minio.UploadInfo{Bucket: bucket, Key: key, Size: size, ETag: "abc"}, nil
	}

	info, err := s.store.PutBytes(s.ctx, "results/j1.csv", []byte("a,b\n"), "")
	s.Require().NoError(err)
	s.Equal("a,b\n", string(gotBody))
	s.Equal(int64(4), info.Size)
	s.Equal("abc", info.ETag)
}

func (s *StoreTestSuite) TestPut_Errors() {
	_, err := s.store.PutBytes(s.ctx, "", []byte("x"), "")
	s.ErrorIs(err, ErrInvalidKey)

	s.api.putFn = func(context.Context, string, string, io.Reader, int64, minio.PutObjectOptions) (minio.UploadInfo, error) {
		return minio.UploadInfo{}, errors.New("503")
	}
	_, err = s.store.PutBytes(s.ctx, "k.json", []byte("{}"), "")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *StoreTestSuite) TestGetBytes() {
	obj := &fakeObject{Reader: bytes.NewReader([]byte("full_term\n")), info: minio.ObjectInfo{Key: "glossary.csv", Size: 10}}
	s.api.getFn = func(_ context.Context, bucket, key string) (ObjectReader, error) {
		s.Equal("glossary.csv", key)
		return obj, nil
	}

	data, err := s.store.GetBytes(s.ctx, "glossary.csv")
	s.Require().NoError(err)
	s.Equal("full_term\n", string(data))
	s.True(obj.closed)
}

func (s *StoreTestSuite) TestGet_NotFound() {
	obj := &fakeObject{Reader: bytes.NewReader(nil), statErr: errNoSuchKey}
	s.api.getFn = func(context.Context, string, string) (ObjectReader, error) { return obj, nil }

	_, _, err := s.store.Get(s.ctx, "missing.csv")
	s.True(pkgerrors.IsNotFound(err))
	s.True(obj.closed)

	s.api.getFn = func(context.Context, string, string) (ObjectReader, error) { return nil, errors.New("reset") }
	_, err = s.store.GetBytes(s.ctx, "x")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *StoreTestSuite) TestExists() {
	s.api.statFn = func(_ context.Context, _, key string) (minio.ObjectInfo, error) {
		switch key {
		case "present":
			return minio.ObjectInfo{Key: key}, nil
		case "absent":
			return minio.ObjectInfo{}, errNoSuchKey
		default:
			return minio.ObjectInfo{}, errors.New("timeout")
		}
	}

	ok, err := s.store.Exists(s.ctx, "present")
	s.NoError(err)
	s.True(ok)

	ok, err = s.store.Exists(s.ctx, "absent")
	s.NoError(err)
	s.False(ok)

	_, err = s.store.Exists(s.ctx, "other")
	s.Error(err)
}

func (s *StoreTestSuite) TestDelete() {
	var removed string
	s.api.removeFn = func(_ context.Context, _, key string) error {
		removed = key
		return nil
	}
	s.NoError(s.store.Delete(s.ctx, "results/j1.jsonl"))
	s.Equal("results/j1.jsonl", removed)
	s.ErrorIs(s.store.Delete(s.ctx, ""), ErrInvalidKey)
}

func (s *StoreTestSuite) TestList() {
	s.api.listFn = func(ctx context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
		s.Equal("results/", opts.Prefix)
		ch := make(chan minio.ObjectInfo)
		go func() {
			defer close(ch)
			for _, k := range []string{"results/a", "results/b", "results/c"} {
				select {
				case ch <- minio.ObjectInfo{Key: k, Size: 1}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch
	}

	objs, err := s.store.List(s.ctx, "results/", 2)
	s.Require().NoError(err)
	s.Len(objs, 2)
	s.Equal("results/a", objs[0].Key)
}

func (s *StoreTestSuite) TestList_Error() {
	s.api.listFn = func(context.Context, string, minio.ListObjectsOptions) <-chan minio.ObjectInfo {
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: errors.New("access denied")}
		close(ch)
		return ch
	}
	_, err := s.store.List(s.ctx, "", 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *StoreTestSuite) TestPresignedURL_DefaultExpiry() {
	s.api.presignFn = func(_ context.Context, _, key string, expiry time.Duration) (*url.URL, error) {
		s.Equal(time.Minute, expiry)
		return url.Parse("http://minio:9000/jobs/" + key + "?X-Amz-Signature=x")
	}
	u, err := s.store.PresignedURL(s.ctx, "results/j1.jsonl", 0)
	s.Require().NoError(err)
	s.Contains(u, "results/j1.jsonl")
}

func (s *StoreTestSuite) TestClosedClient() {
	s.Require().NoError(s.client.Close())
	_, err := s.store.GetBytes(s.ctx, "k")
	s.ErrorIs(err, ErrMinIOClientClosed)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestResultKeyAndContentType(t *testing.T) {
	assert.Equal(t, "results/j1.jsonl", ResultKey("j1", ""))
	assert.Equal(t, "results/j1.csv", ResultKey("j1", ".csv"))
	assert.Equal(t, "text/csv", ContentTypeFor("a/B.CSV"))
	assert.Equal(t, "application/x-ndjson", ContentTypeFor("r.jsonl"))
	assert.Equal(t, "application/yaml", ContentTypeFor("g.yml"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("blob"))
}

//Personal.AI order the ending
