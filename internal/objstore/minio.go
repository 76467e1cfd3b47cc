package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shaiso/eggo/internal/domain"
)

// MinioConfig — параметры подключения к S3-совместимому хранилищу.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Secure          bool
}

// MinioStore — Store поверх S3 через minio-go.
//
// В S3 нет rename, поэтому Move = server-side copy + delete источника.
// Объект назначения появляется только после завершения копирования.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore создаёт клиента. Сеть не используется до первого запроса.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		creds = credentials.NewIAM("")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func parseS3(u string) (bucket, key string, err error) {
	scheme, bucket, key, err := ParseURL(u)
	if err != nil {
		return "", "", err
	}
	if scheme != "s3" {
		return "", "", fmt.Errorf("%w: s3 store cannot serve %q", ErrUnsupportedScheme, u)
	}
	return bucket, key, nil
}

// Exists проверяет объект через HEAD.
func (s *MinioStore) Exists(ctx context.Context, u string) (bool, error) {
	bucket, key, err := parseS3(u)
	if err != nil {
		return false, err
	}

	_, err = s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", domain.ErrTargetUnavailable, u, err)
}

// Put загружает объект из reader.
func (s *MinioStore) Put(ctx context.Context, u string, r io.Reader, size int64) error {
	bucket, key, err := parseS3(u)
	if err != nil {
		return err
	}

	if _, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("put %s: %w", u, err)
	}
	return nil
}

// PutFile загружает локальный файл (multipart для больших файлов).
func (s *MinioStore) PutFile(ctx context.Context, u, path string) error {
	bucket, key, err := parseS3(u)
	if err != nil {
		return err
	}

	if _, err := s.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("upload %s -> %s: %w", path, u, err)
	}
	return nil
}

// Move копирует объект на стороне сервера и удаляет источник.
func (s *MinioStore) Move(ctx context.Context, src, dst string) error {
	srcBucket, srcKey, err := parseS3(src)
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := parseS3(dst)
	if err != nil {
		return err
	}

	// ComposeObject умеет multipart copy, CopyObject ограничен 5 GiB
	_, err = s.client.ComposeObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}

	if err := s.client.RemoveObject(ctx, srcBucket, srcKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", src, err)
	}
	return nil
}

// Open открывает объект на чтение.
func (s *MinioStore) Open(ctx context.Context, u string) (io.ReadCloser, error) {
	bucket, key, err := parseS3(u)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	return obj, nil
}

// RemovePrefix удаляет все объекты под префиксом.
func (s *MinioStore) RemovePrefix(ctx context.Context, prefix string) error {
	bucket, key, err := parseS3(prefix)
	if err != nil {
		return err
	}

	objects := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    key,
		Recursive: true,
	})

	for rerr := range s.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("remove %s/%s: %w", bucket, rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}
