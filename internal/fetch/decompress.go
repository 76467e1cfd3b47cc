package fetch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/shaiso/eggo/internal/domain"
)

// Decompress распаковывает файл рядом с ним и удаляет архив.
// Поддерживается только gzip (.gz, включая составные BGZF-файлы).
func Decompress(path string) (string, error) {
	ext := filepath.Ext(path)
	if ext != ".gz" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedCompression, ext)
	}
	dst := strings.TrimSuffix(path, ext)

	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("%w: gunzip %s: %v", domain.ErrExternalCommandFailed, path, err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return "", fmt.Errorf("%w: gunzip %s: %v", domain.ErrExternalCommandFailed, path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove %s: %w", path, err)
	}
	return dst, nil
}
