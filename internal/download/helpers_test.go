package download

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/objstore"
)

// fixture — окружение с file:// хранилищем и HTTP-источником.
type fixture struct {
	dir   string
	env   config.Env
	store objstore.Store
	srv   *httptest.Server
	hits  atomic.Int32
	svc   *Services
}

func newFixture(t *testing.T, files map[string][]byte) *fixture {
	t.Helper()

	f := &fixture{dir: t.TempDir()}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(f.srv.Close)

	root := "file://" + filepath.ToSlash(f.dir)
	f.env = config.Env{
		BucketURL:      root + "/bucket",
		RawURL:         root + "/bucket/raw",
		TmpURL:         root + "/bucket/tmp",
		EphemeralMount: filepath.Join(f.dir, "mnt"),
	}
	f.store = objstore.NewFileStore()

	fetchers := fetch.NewFetchers(f.env, command.RunnerFunc(nil), f.srv.Client())
	f.svc = &Services{
		Env:        f.env,
		Store:      f.store,
		Transfer:   NewTransfer(f.env, f.store, fetchers, nil),
		Partitions: &ObjectPartitions{Store: f.store},
	}
	return f
}

func (f *fixture) url(p string) string {
	return f.srv.URL + p
}

// scratchDirs — оставшиеся scratch-директории.
func (f *fixture) scratchDirs(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.env.EphemeralMount, ScratchPrefix+"*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func (f *fixture) read(t *testing.T, u string) string {
	t.Helper()
	r, err := f.store.Open(context.Background(), u)
	if err != nil {
		t.Fatalf("open %s: %v", u, err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	return string(data)
}

func gz(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(s))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// watchStore следит за объектом назначения на каждом шаге Transfer.
type watchStore struct {
	objstore.Store
	dest string

	mu           sync.Mutex
	observations []bool // Exists(dest) перед каждой операцией записи
}

func (s *watchStore) observe(ctx context.Context) {
	ok, _ := s.Store.Exists(ctx, s.dest)
	s.mu.Lock()
	s.observations = append(s.observations, ok)
	s.mu.Unlock()
}

func (s *watchStore) PutFile(ctx context.Context, u, path string) error {
	s.observe(ctx)
	if err := s.Store.PutFile(ctx, u, path); err != nil {
		return err
	}
	s.observe(ctx)
	return nil
}

func (s *watchStore) Move(ctx context.Context, src, dst string) error {
	s.observe(ctx)
	return s.Store.Move(ctx, src, dst)
}
