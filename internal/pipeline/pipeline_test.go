package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/dispatch"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/etl"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/target"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// toolRecorder — внешние команды hadoop и adam-submit.
type toolRecorder struct {
	mu   sync.Mutex
	adam []string
}

func (r *toolRecorder) runner() command.Runner {
	return command.RunnerFunc(func(_ context.Context, cmd command.Cmd) ([]byte, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if filepath.Base(cmd.Name) == "adam-submit" {
			r.adam = append(r.adam, cmd.Args[2])
		}
		return nil, nil
	})
}

type fakeRuns struct {
	created []*domain.Run
	updated []domain.Run
}

func (f *fakeRuns) Create(_ context.Context, run *domain.Run) error {
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRuns) Update(_ context.Context, run *domain.Run) error {
	f.updated = append(f.updated, *run)
	return nil
}

type fixture struct {
	dir   string
	env   config.Env
	store objstore.Store
	tools *toolRecorder
	runs  *fakeRuns
	srv   *httptest.Server
	hits  atomic.Int32
	down  atomic.Bool // источник недоступен
	p     *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("##fileformat=VCFv4.1\n"))
	zw.Close()
	payload := buf.Bytes()

	f := &fixture{dir: t.TempDir(), tools: &toolRecorder{}, runs: &fakeRuns{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if f.down.Load() || r.URL.Path != "/a.vcf.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	t.Cleanup(f.srv.Close)

	root := "file://" + filepath.ToSlash(f.dir)
	f.env = config.Env{
		BucketURL:      root + "/bucket",
		RawURL:         root + "/bucket/raw",
		TmpURL:         root + "/bucket/tmp",
		EphemeralMount: filepath.Join(f.dir, "mnt"),
		HadoopHome:     "/opt/hadoop",
		AdamHome:       "/opt/adam",
		SparkMasterURL: "local[2]",
		Dispatcher:     config.DispatcherLocal,
	}
	f.store = objstore.NewFileStore()

	p, err := New(Config{
		Env:        f.env,
		Store:      f.store,
		Runner:     f.tools.runner(),
		HTTPClient: f.srv.Client(),
		Runs:       f.runs,
		Logger:     discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.p = p
	return f
}

func (f *fixture) config(editions ...string) *config.PipelineConfig {
	return &config.PipelineConfig{
		Name:     "demo",
		Sources:  []config.SourceDescriptor{{URL: f.srv.URL + "/a.vcf.gz", Compression: true, Format: "vcf"}},
		Editions: editions,
	}
}

// markers — все _SUCCESS в хранилище, относительно корня бакета.
func (f *fixture) markers(t *testing.T) []string {
	t.Helper()
	bucket := filepath.Join(f.dir, "bucket")
	var out []string
	err := filepath.WalkDir(bucket, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == target.SuccessMarker {
			rel, _ := filepath.Rel(bucket, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}

func kinds(entries []engine.PlanEntry) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		kind, _, _ := strings.Cut(e.ID, "(")
		out[kind]++
	}
	return out
}

func TestBuild_Shape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		editions []string
		serial   bool
		want     map[string]int
	}{
		{
			name:     "basic and flat",
			editions: []string{"basic", "flat"},
			want:     map[string]int{"vcf2adam": 1, "ADAMFlatten": 1, "ADAMBasic": 1, "FanoutDownload": 1, "PreparePartition": 1},
		},
		{
			name:     "basic only",
			editions: []string{"basic"},
			want:     map[string]int{"vcf2adam": 1, "ADAMBasic": 1, "FanoutDownload": 1, "PreparePartition": 1},
		},
		{
			name:     "serial download",
			editions: []string{"basic"},
			serial:   true,
			want:     map[string]int{"vcf2adam": 1, "ADAMBasic": 1, "DownloadDataset": 1, "DownloadFile": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := f.p.Status(ctx, f.config(tt.editions...), Options{Serial: tt.serial})
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			got := kinds(entries)
			if len(got) != len(tt.want) {
				t.Errorf("unexpected tasks %v, want %v", got, tt.want)
			}
			for k, n := range tt.want {
				if got[k] != n {
					t.Errorf("%s: got %d, want %d", k, got[k], n)
				}
			}
			for _, e := range entries {
				if e.Complete {
					t.Errorf("%s must not be complete before the first run", e.ID)
				}
			}
		})
	}
}

func TestRun_DemoScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.config("basic", "flat")

	if _, err := f.p.Run(ctx, cfg, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	want := []string{
		"demo/bdg/basic/_SUCCESS",
		"demo/bdg/flat/_SUCCESS",
		"raw/demo/_SUCCESS",
	}
	if got := f.markers(t); !slices.Equal(got, want) {
		t.Errorf("unexpected markers %v, want %v", got, want)
	}
	if !slices.Equal(f.tools.adam, []string{"vcf2adam", "flatten"}) {
		t.Errorf("unexpected adam commands %v", f.tools.adam)
	}

	// распакованный объект лежит под префиксом сырых данных
	entries, _ := filepath.Glob(filepath.Join(f.dir, "bucket", "raw", "demo", "*-a.vcf"))
	if len(entries) != 1 {
		t.Errorf("expected one decompressed raw object, got %v", entries)
	}

	// удаляем только маркер flat
	flat := f.env.TargetURL("demo", "", config.EditionFlat) + target.SuccessMarker
	if err := f.store.RemovePrefix(ctx, flat); err != nil {
		t.Fatal(err)
	}
	f.tools.adam = nil
	hits := f.hits.Load()

	res, err := f.p.Run(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !slices.Equal(f.tools.adam, []string{"flatten"}) {
		t.Errorf("only flatten must run, got %v", f.tools.adam)
	}
	if f.hits.Load() != hits {
		t.Error("raw data must not be downloaded again")
	}
	for _, id := range res.Executed {
		if strings.HasPrefix(id, "ADAMBasic(") || strings.HasPrefix(id, "FanoutDownload(") {
			t.Errorf("%s must be skipped", id)
		}
	}

	if len(f.runs.updated) != 2 || f.runs.updated[1].Status != domain.RunStatusSucceeded {
		t.Errorf("unexpected run records %+v", f.runs.updated)
	}
}

func TestRun_IdempotentReentry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.config("basic")

	if _, err := f.p.Run(ctx, cfg, Options{Serial: true}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := f.markers(t)
	f.tools.adam = nil

	res, err := f.p.Run(ctx, cfg, Options{Serial: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(f.tools.adam) != 0 {
		t.Errorf("no external actions expected, got %v", f.tools.adam)
	}
	// выполняется только корневая задача без выходов
	if len(res.Executed) != 1 || !strings.HasPrefix(res.Executed[0], "vcf2adam(") {
		t.Errorf("unexpected executed %v", res.Executed)
	}
	if after := f.markers(t); !slices.Equal(before, after) {
		t.Errorf("markers changed: %v -> %v", before, after)
	}
}

func TestRun_FailureThenRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.config("basic")

	f.down.Store(true)
	_, err := f.p.Run(ctx, cfg, Options{})
	if !errors.Is(err, dispatch.ErrItemsFailed) {
		t.Fatalf("expected ErrItemsFailed, got %v", err)
	}
	var te *engine.TaskError
	if !errors.As(err, &te) || !strings.HasPrefix(te.TaskID, "FanoutDownload(") {
		t.Errorf("failure must name the fan-out task: %v", err)
	}
	if m := f.markers(t); len(m) != 0 {
		t.Errorf("no markers expected after failure, got %v", m)
	}
	if last := f.runs.updated[len(f.runs.updated)-1]; last.Status != domain.RunStatusFailed || last.Error == "" {
		t.Errorf("failed run must be recorded: %+v", last)
	}

	f.down.Store(false)
	if _, err := f.p.Run(ctx, cfg, Options{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if m := f.markers(t); len(m) != 2 {
		t.Errorf("expected raw and basic markers, got %v", m)
	}
}

func TestBuild_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	cfg := f.config("basic")
	cfg.Sources[0].Format = "fastq"

	_, err := f.p.Build(cfg, Options{})
	if !errors.Is(err, domain.ErrUnsupportedFormat) || !domain.IsFatal(err) {
		t.Errorf("expected fatal ErrUnsupportedFormat, got %v", err)
	}
}

func TestRun_UnknownPipelineIsFatal(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.Run(context.Background(), f.config("basic"), Options{Pipeline: "vcf2adm"})
	if !errors.Is(err, etl.ErrUnknownPipeline) || !domain.IsFatal(err) {
		t.Errorf("expected fatal ErrUnknownPipeline, got %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	env := config.Env{TmpURL: "s3://bucket/tmp", PartitionDir: "/tmp/eggo/partitions"}

	tests := []struct {
		kind    string
		wantDir string
		wantErr error
	}{
		{kind: config.DispatcherHadoop, wantDir: "/tmp/eggo/partitions"},
		{kind: config.DispatcherLocal, wantDir: "s3://bucket/tmp/partitions"},
		{kind: config.DispatcherAMQP, wantErr: ErrNoBroker},
		{kind: "spark", wantErr: ErrUnknownDispatcher},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b, err := NewBackend(tt.kind, BackendDeps{Env: env})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if b.PartitionDir != tt.wantDir || b.Dispatcher == nil || b.Partitions == nil {
				t.Errorf("unexpected backend %+v", b)
			}
		})
	}
}
