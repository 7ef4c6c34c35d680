package extraction

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/rostertag/internal/domain/run"
	"github.com/turtacn/rostertag/internal/infrastructure/storage/minio"
	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

type mockRunRepository struct {
	mock.Mock
}

func (m *mockRunRepository) Create(ctx context.Context, r *run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRunRepository) Finish(ctx context.Context, r *run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *mockRunRepository) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*run.Run), args.Error(1)
}

// memoryStore is an ObjectStore over a map.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (*minio.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return s.PutBytes(ctx, key, data, contentType)
}

func (s *memoryStore) PutBytes(_ context.Context, key string, data []byte, contentType string) (*minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return &minio.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *minio.ObjectInfo, error) {
	data, err := s.GetBytes(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), &minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *memoryStore) GetBytes(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, minio.ErrObjectNotFound.WithDetail(key)
	}
	return data, nil
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) List(_ context.Context, prefix string, limit int) ([]minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]minio.ObjectInfo, len(keys))
	for i, k := range keys {
		out[i] = minio.ObjectInfo{Key: k, Size: int64(len(s.objects[k]))}
	}
	return out, nil
}

func (s *memoryStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "memory://" + key, nil
}

// failingSink rejects every write.
type failingSink struct{}

func (failingSink) Write(context.Context, string, *rx.Result) error {
	return errors.New(errors.ErrCodeStorageError, "disk full")
}

func rosterGlossary() []rx.GlossaryEntry {
	return []rx.GlossaryEntry{
		{CanonicalTerm: "Company", Abbreviations: []string{"Co", "Coy"}, Category: rx.CategoryUnit},
		{CanonicalTerm: "Battalion", Abbreviations: []string{"Bn"}, Category: rx.CategoryUnit},
		{CanonicalTerm: "Parachute Infantry Regiment", Abbreviations: []string{"PIR"}, Category: rx.CategoryUnit},
		{CanonicalTerm: "Division", Abbreviations: []string{"Div"}, Category: rx.CategoryOrganization},
		{CanonicalTerm: "Sergeant", Abbreviations: []string{"Sgt"}, Category: rx.CategoryRole},
		{CanonicalTerm: "Private", Abbreviations: []string{"Pvt"}, Category: rx.CategoryRole},
	}
}

func rosterTable() *rx.Table {
	return &rx.Table{
		Columns: []string{"ID", "Name", "Notes"},
		Rows: [][]string{
			{"1", "Sgt John Smith", "Co E"},
			{"2", "2/506th PIR", ""},
			{"3", "SGT  john smith", "co e"},
			{"4", "Pvt Jones, 101st Div", ""},
		},
	}
}

const glossaryCSV = "full_term,abbreviations,term_type\n" +
	"Company,Co; Coy,Unit Term\n" +
	"Battalion,Bn,Unit Term\n" +
	"Parachute Infantry Regiment,PIR,Unit Term\n" +
	"Division,Div,Organization Term\n" +
	"Sergeant,Sgt,Role Term\n" +
	"Private,Pvt,Role Term\n"

const recordsCSV = "ID,Name,Notes\n" +
	"1,Sgt John Smith,Co E\n" +
	"2,2/506th PIR,\n" +
	"3,SGT  john smith,co e\n" +
	"4,\"Pvt Jones, 101st Div\",\n"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

//Personal.AI order the ending
