// Package objstore — доступ к object storage по URL.
//
// Поддерживаемые схемы:
//   - s3://bucket/key   — MinioStore (S3 и совместимые хранилища)
//   - file:///abs/path  — FileStore (локальная ФС, для разработки и тестов)
//
// Move публикует объект атомарно: до его завершения объект назначения
// не виден, после — виден целиком.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/shaiso/eggo/internal/config"
)

// ErrUnsupportedScheme — схема URL не поддерживается хранилищем.
var ErrUnsupportedScheme = errors.New("unsupported object store scheme")

// Store — операции над объектами, адресуемыми URL.
type Store interface {
	// Exists проверяет наличие объекта. Отсутствие — не ошибка.
	Exists(ctx context.Context, u string) (bool, error)

	// Put записывает объект из reader (size < 0 — неизвестный размер).
	Put(ctx context.Context, u string, r io.Reader, size int64) error

	// PutFile загружает локальный файл.
	PutFile(ctx context.Context, u, path string) error

	// Move перемещает объект src → dst; dst появляется атомарно.
	Move(ctx context.Context, src, dst string) error

	// Open открывает объект на чтение.
	Open(ctx context.Context, u string) (io.ReadCloser, error)

	// RemovePrefix удаляет все объекты под префиксом.
	RemovePrefix(ctx context.Context, prefix string) error
}

// New создаёт Store по схеме BucketURL окружения.
func New(env config.Env) (Store, error) {
	scheme, _, _, err := ParseURL(env.BucketURL)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "s3":
		return NewMinioStore(MinioConfig{
			Endpoint:        env.S3Endpoint,
			AccessKeyID:     env.AccessKeyID,
			SecretAccessKey: env.SecretAccessKey,
			Secure:          env.S3Secure,
		})
	case "file":
		return NewFileStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}

// ParseURL разбирает URL объекта на схему, bucket и ключ.
// Для file:// bucket пустой, а key — абсолютный путь.
func ParseURL(raw string) (scheme, bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("parse object url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return "", "", "", fmt.Errorf("object url %q has no bucket", raw)
		}
		return "s3", u.Host, strings.TrimPrefix(u.Path, "/"), nil
	case "file":
		return "file", "", u.Path, nil
	default:
		return "", "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, raw)
	}
}
