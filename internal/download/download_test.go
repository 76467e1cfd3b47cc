package download

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/telemetry"
)

func TestDestinationName(t *testing.T) {
	a := DestinationName("http://x/a.vcf.gz", true)
	if !strings.HasSuffix(a, "-a.vcf") {
		t.Errorf("decompressed name must drop .gz: %s", a)
	}
	if again := DestinationName("http://x/a.vcf.gz", true); again != a {
		t.Errorf("name must be stable: %s != %s", a, again)
	}

	b := DestinationName("http://x/a.vcf.gz", false)
	if !strings.HasSuffix(b, "-a.vcf.gz") {
		t.Errorf("compressed name must keep .gz: %s", b)
	}
	if c := DestinationName("http://y/a.vcf.gz", true); c == a {
		t.Error("different URLs must give different names")
	}
}

func TestTransfer_Decompressed(t *testing.T) {
	f := newFixture(t, map[string][]byte{"/a.vcf.gz": gz(t, "chr1\t1\n")})
	dest := config.JoinURL(f.env.RawDataURL("demo"), "a.vcf")

	src := config.SourceDescriptor{URL: f.url("/a.vcf.gz"), Compression: true, Format: "vcf"}
	if err := f.svc.Transfer.Run(context.Background(), src, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.read(t, dest); got != "chr1\t1\n" {
		t.Errorf("unexpected content %q", got)
	}
	if dirs := f.scratchDirs(t); len(dirs) != 0 {
		t.Errorf("scratch must be removed, found %v", dirs)
	}
}

func TestTransfer_ScratchRemovedOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	dest := config.JoinURL(f.env.RawDataURL("demo"), "missing.vcf")

	err := f.svc.Transfer.Run(context.Background(),
		config.SourceDescriptor{URL: f.url("/missing.vcf")}, dest)
	if !errors.Is(err, domain.ErrExternalCommandFailed) {
		t.Fatalf("expected ErrExternalCommandFailed, got %v", err)
	}
	if dirs := f.scratchDirs(t); len(dirs) != 0 {
		t.Errorf("scratch must be removed, found %v", dirs)
	}
	if ok, _ := f.store.Exists(context.Background(), dest); ok {
		t.Error("destination must stay absent")
	}
}

func TestTransfer_UnsupportedCompressionFailsFast(t *testing.T) {
	f := newFixture(t, map[string][]byte{"/a.vcf.bz2": []byte("x")})

	err := f.svc.Transfer.Run(context.Background(),
		config.SourceDescriptor{URL: f.url("/a.vcf.bz2"), Compression: true}, f.env.TmpObjectURL("x"))
	if !errors.Is(err, domain.ErrUnsupportedCompression) {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
	if f.hits.Load() != 0 {
		t.Error("nothing must be downloaded")
	}
}

func TestTransfer_UnsupportedSource(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.Transfer.Run(context.Background(),
		config.SourceDescriptor{URL: "ftp://x/a.vcf"}, f.env.TmpObjectURL("x"))
	if !errors.Is(err, domain.ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource, got %v", err)
	}
	if dirs := f.scratchDirs(t); len(dirs) != 0 {
		t.Errorf("no scratch must be created, found %v", dirs)
	}
}

func TestTransfer_CountsRejectedSources(t *testing.T) {
	f := newFixture(t, map[string][]byte{"/a.vcf.bz2": []byte("x")})

	tests := []struct {
		name string
		src  config.SourceDescriptor
		kind string
	}{
		{"unsupported source", config.SourceDescriptor{URL: "ftp://x/a.vcf"}, KindUnknown},
		{"unsupported compression", config.SourceDescriptor{URL: f.url("/a.vcf.bz2"), Compression: true}, string(fetch.KindHTTP)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed := telemetry.DownloadsTotal.WithLabelValues(tt.kind, "error")
			before := testutil.ToFloat64(failed)

			if err := f.svc.Transfer.Run(context.Background(), tt.src, f.env.TmpObjectURL("x")); err == nil {
				t.Fatal("expected error")
			}
			if got := testutil.ToFloat64(failed) - before; got != 1 {
				t.Errorf("expected one failed download counted, got %v", got)
			}
		})
	}
}

func TestTransfer_AtomicVisibility(t *testing.T) {
	f := newFixture(t, map[string][]byte{"/a.vcf": []byte("payload")})
	dest := config.JoinURL(f.env.RawDataURL("demo"), "a.vcf")

	ws := &watchStore{Store: f.store, dest: dest}
	fetchers := fetch.NewFetchers(f.env, command.RunnerFunc(nil), f.srv.Client())
	tr := NewTransfer(f.env, ws, fetchers, nil)

	if err := tr.Run(context.Background(), config.SourceDescriptor{URL: f.url("/a.vcf")}, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ws.observations) == 0 {
		t.Fatal("no observations recorded")
	}
	for i, present := range ws.observations {
		if present {
			t.Errorf("destination visible before move (observation %d)", i)
		}
	}
	if got := f.read(t, dest); got != "payload" {
		t.Errorf("destination must be complete right after move, got %q", got)
	}
}

func TestDownloadDatasetTask_Serial(t *testing.T) {
	f := newFixture(t, map[string][]byte{
		"/a.vcf.gz": gz(t, "a"),
		"/b.vcf":    []byte("b"),
	})
	sources := []config.SourceDescriptor{
		{URL: f.url("/a.vcf.gz"), Compression: true, Format: "vcf"},
		{URL: f.url("/b.vcf"), Format: "vcf"},
	}
	dest := f.env.RawDataURL("demo")
	task := NewDownloadDatasetTask(f.svc, "demo", sources, dest)

	r := engine.NewResolver(engine.Config{})
	res, err := r.Resolve(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Executed) != 3 {
		t.Errorf("expected 2 downloads and the dataset task, got %v", res.Executed)
	}

	for _, src := range sources {
		u := config.JoinURL(dest, DestinationName(src.URL, src.Compression))
		if ok, _ := f.store.Exists(context.Background(), u); !ok {
			t.Errorf("missing %s", u)
		}
	}
	if ok, _ := f.store.Exists(context.Background(), dest+"_SUCCESS"); !ok {
		t.Error("_SUCCESS must be written")
	}

	hits := f.hits.Load()
	if _, err := r.Resolve(context.Background(), task); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if f.hits.Load() != hits {
		t.Error("second pass must not download anything")
	}
}
