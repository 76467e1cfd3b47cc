package download

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/target"
)

// EncodeLine кодирует источник в одну строку partition-файла (JSON).
func EncodeLine(src config.SourceDescriptor) (string, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return "", fmt.Errorf("encode source %s: %w", src.URL, err)
	}
	return string(data), nil
}

// DecodeLine восстанавливает источник из строки partition-файла.
//
// Hadoop streaming с NLineInputFormat передаёт строки как "<offset>\t<json>",
// префикс до первого табулятора отбрасывается. В JSON табуляторы
// экранируются, поэтому граница однозначна.
func DecodeLine(line string) (config.SourceDescriptor, error) {
	line = strings.TrimRight(line, "\r\n")
	if _, rest, ok := strings.Cut(line, "\t"); ok {
		line = rest
	}

	var src config.SourceDescriptor
	if err := json.Unmarshal([]byte(line), &src); err != nil {
		return src, fmt.Errorf("decode partition line: %w", err)
	}
	if src.URL == "" {
		return src, fmt.Errorf("decode partition line: %w", config.ErrEmptyURL)
	}
	return src, nil
}

// EncodePartition кодирует источники, по одному на строку.
func EncodePartition(sources []config.SourceDescriptor) ([]byte, error) {
	var buf bytes.Buffer
	for _, src := range sources {
		line, err := EncodeLine(src)
		if err != nil {
			return nil, err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ReadLines читает непустые строки partition-файла.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read partition: %w", err)
	}
	return lines, nil
}

// PartitionPath — детерминированный путь partition-файла датасета.
// Другой набор источников даёт другой путь.
func PartitionPath(dir, dataset string, sources []config.SourceDescriptor) (string, error) {
	data, err := EncodePartition(sources)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return config.JoinURL(dir, dataset+"-"+hex.EncodeToString(sum[:])[:12]), nil
}

// PartitionStore — место, откуда partition-файл читает вычислительный слой.
type PartitionStore interface {
	Put(ctx context.Context, p string, data []byte) error
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	Target(p string) target.Target
}

// HDFSPartitions хранит partition-файлы в HDFS (для Hadoop streaming).
type HDFSPartitions struct {
	Runner    command.Runner
	HadoopBin string
	// TempDir — локальный каталог для промежуточного файла.
	TempDir string
}

// Put копирует данные в HDFS через `hadoop fs -put -f`.
func (s *HDFSPartitions) Put(ctx context.Context, p string, data []byte) error {
	f, err := os.CreateTemp(s.TempDir, ScratchPrefix+"partition")
	if err != nil {
		return fmt.Errorf("create local partition file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write local partition file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close local partition file: %w", err)
	}

	if err := s.Runner.Run(ctx, command.Cmd{
		Name: s.HadoopBin,
		Args: []string{"fs", "-mkdir", "-p", path.Dir(p)},
	}); err != nil {
		return err
	}
	return s.Runner.Run(ctx, command.Cmd{
		Name: s.HadoopBin,
		Args: []string{"fs", "-put", "-f", f.Name(), p},
	})
}

// Open читает файл через `hadoop fs -cat`.
func (s *HDFSPartitions) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.Runner.Output(ctx, command.Cmd{
		Name: s.HadoopBin,
		Args: []string{"fs", "-cat", p},
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}

// Target — HDFS-путь partition-файла.
func (s *HDFSPartitions) Target(p string) target.Target {
	return target.NewHDFS(s.Runner, s.HadoopBin, p)
}

// ObjectPartitions хранит partition-файлы в object store
// (для RabbitMQ и локального режима).
type ObjectPartitions struct {
	Store objstore.Store
}

// Put записывает объект.
func (s *ObjectPartitions) Put(ctx context.Context, p string, data []byte) error {
	return s.Store.Put(ctx, p, bytes.NewReader(data), int64(len(data)))
}

// Open открывает объект.
func (s *ObjectPartitions) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return s.Store.Open(ctx, p)
}

// Target — объект partition-файла.
func (s *ObjectPartitions) Target(p string) target.Target {
	return target.NewObject(s.Store, p)
}
