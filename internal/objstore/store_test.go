package objstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/eggo/internal/config"
)

func fileURL(parts ...string) string {
	return "file://" + filepath.ToSlash(filepath.Join(parts...))
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		in     string
		scheme string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://bucket/a/b.vcf", "s3", "bucket", "a/b.vcf", true},
		{"s3n://bucket/a/", "s3", "bucket", "a/", true},
		{"file:///tmp/x/y", "file", "", "/tmp/x/y", true},
		{"s3:///nobucket", "", "", "", false},
		{"ftp://host/x", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			scheme, bucket, key, err := ParseURL(tt.in)
			if !tt.ok {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scheme != tt.scheme || bucket != tt.bucket || key != tt.key {
				t.Errorf("got (%s, %s, %s)", scheme, bucket, key)
			}
		})
	}
}

func TestFileStore_PutMoveOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore()

	tmp := fileURL(dir, "tmp", "obj")
	dst := fileURL(dir, "final", "deep", "obj")

	if err := s.Put(ctx, tmp, strings.NewReader("payload"), 7); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := s.Exists(ctx, dst)
	if err != nil || ok {
		t.Fatalf("destination must be absent before move: ok=%v err=%v", ok, err)
	}

	if err := s.Move(ctx, tmp, dst); err != nil {
		t.Fatalf("move: %v", err)
	}

	if ok, _ := s.Exists(ctx, tmp); ok {
		t.Error("source must be gone after move")
	}
	if ok, _ := s.Exists(ctx, dst); !ok {
		t.Error("destination must exist after move")
	}

	r, err := s.Open(ctx, dst)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	data, _ := io.ReadAll(r)
	if string(data) != "payload" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFileStore_RemovePrefix(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore()

	for _, name := range []string{"a", "b/c"} {
		if err := s.Put(ctx, fileURL(dir, "ds", name), strings.NewReader("x"), 1); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if err := s.RemovePrefix(ctx, fileURL(dir, "ds")+"/"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := s.Exists(ctx, fileURL(dir, "ds", "b", "c")); ok {
		t.Error("objects under prefix must be removed")
	}
}

func TestFileStore_RejectsS3(t *testing.T) {
	s := NewFileStore()
	_, err := s.Exists(context.Background(), "s3://bucket/key")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestNew_ByScheme(t *testing.T) {
	store, err := New(config.Env{BucketURL: "file:///data/eggo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("expected FileStore, got %T", store)
	}

	store, err = New(config.Env{BucketURL: "s3://bucket", S3Endpoint: "localhost:9000", AccessKeyID: "k", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*MinioStore); !ok {
		t.Errorf("expected MinioStore, got %T", store)
	}

	if _, err := New(config.Env{BucketURL: "gs://bucket"}); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
