package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shaiso/eggo/internal/domain"
)

// FileStore — Store поверх локальной файловой системы (file:// URL).
//
// Move реализован через os.Rename, поэтому атомарен в пределах одной ФС.
type FileStore struct{}

// NewFileStore создаёт FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) path(u string) (string, error) {
	scheme, _, p, err := ParseURL(u)
	if err != nil {
		return "", err
	}
	if scheme != "file" {
		return "", fmt.Errorf("%w: file store cannot serve %q", ErrUnsupportedScheme, u)
	}
	return filepath.FromSlash(p), nil
}

// Exists проверяет наличие файла.
func (s *FileStore) Exists(_ context.Context, u string) (bool, error) {
	p, err := s.path(u)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", domain.ErrTargetUnavailable, p, err)
}

// Put записывает файл через временный файл и rename.
func (s *FileStore) Put(_ context.Context, u string, r io.Reader, _ int64) error {
	p, err := s.path(u)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// PutFile копирует локальный файл.
func (s *FileStore) PutFile(ctx context.Context, u, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return s.Put(ctx, u, f, -1)
}

// Move перемещает файл.
func (s *FileStore) Move(_ context.Context, src, dst string) error {
	from, err := s.path(src)
	if err != nil {
		return err
	}
	to, err := s.path(dst)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}
	return nil
}

// Open открывает файл на чтение.
func (s *FileStore) Open(_ context.Context, u string) (io.ReadCloser, error) {
	p, err := s.path(u)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// RemovePrefix удаляет каталог или файл целиком.
func (s *FileStore) RemovePrefix(_ context.Context, prefix string) error {
	p, err := s.path(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
