package target

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// LocalTarget — файл на локальной ФС.
type LocalTarget struct {
	path string
}

// NewLocal создаёт LocalTarget.
func NewLocal(path string) *LocalTarget {
	return &LocalTarget{path: path}
}

func (t *LocalTarget) String() string { return t.path }
func (t *LocalTarget) Kind() Kind     { return KindLocal }

// Path — путь к файлу.
func (t *LocalTarget) Path() string { return t.path }

func (t *LocalTarget) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(t.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, unavailable(t, err)
}

// MarkComplete проверяет, что файл записан действием задачи.
func (t *LocalTarget) MarkComplete(ctx context.Context) error {
	return requirePresent(ctx, t)
}
