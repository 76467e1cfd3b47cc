// Package target — долговременные места результатов задач.
//
// Target отвечает на два вопроса: есть ли результат (Exists) и как
// зафиксировать его готовность (MarkComplete). Состояние в памяти не
// хранится: каждый Exists заново опрашивает backend, поэтому повторный
// запуск из другого процесса видит ту же картину.
package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/objstore"
)

// SuccessMarker — имя флага готовности под префиксом.
const SuccessMarker = "_SUCCESS"

// Kind — тип backend'а.
type Kind string

const (
	KindObject        Kind = "object"
	KindFlag          Kind = "flag"
	KindLocal         Kind = "local"
	KindDistributedFS Kind = "hdfs"
)

// Target — проверяемый и отмечаемый результат задачи.
type Target interface {
	fmt.Stringer

	Kind() Kind

	// Exists — чистый запрос без побочных эффектов.
	// Отсутствие не ошибка; ошибка только при сбое backend'а
	// (оборачивает domain.ErrTargetUnavailable).
	Exists(ctx context.Context) (bool, error)

	// MarkComplete фиксирует готовность. Повторный вызов безопасен.
	MarkComplete(ctx context.Context) error
}

// AllExist сообщает, существуют ли все targets. Пустой список — false:
// задача без результатов всегда выполняется.
func AllExist(ctx context.Context, targets []Target) (bool, error) {
	if len(targets) == 0 {
		return false, nil
	}
	for _, t := range targets {
		ok, err := t.Exists(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// unavailable приводит ошибку backend'а к ErrTargetUnavailable.
func unavailable(t Target, err error) error {
	if errors.Is(err, domain.ErrTargetUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrTargetUnavailable, t, err)
}

// ObjectTarget — один объект в object store.
// Готовность — присутствие самого объекта, его пишет действие задачи.
type ObjectTarget struct {
	store objstore.Store
	url   string
}

// NewObject создаёт ObjectTarget.
func NewObject(store objstore.Store, url string) *ObjectTarget {
	return &ObjectTarget{store: store, url: url}
}

func (t *ObjectTarget) String() string { return t.url }
func (t *ObjectTarget) Kind() Kind     { return KindObject }

// URL — адрес объекта.
func (t *ObjectTarget) URL() string { return t.url }

func (t *ObjectTarget) Exists(ctx context.Context) (bool, error) {
	ok, err := t.store.Exists(ctx, t.url)
	if err != nil {
		return false, unavailable(t, err)
	}
	return ok, nil
}

// MarkComplete проверяет, что действие действительно записало объект.
func (t *ObjectTarget) MarkComplete(ctx context.Context) error {
	return requirePresent(ctx, t)
}

// FlagTarget — префикс, готовый при наличии нулевого объекта _SUCCESS.
type FlagTarget struct {
	store  objstore.Store
	prefix string
}

// NewFlag создаёт FlagTarget для префикса (завершающий "/" добавляется).
func NewFlag(store objstore.Store, prefix string) *FlagTarget {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &FlagTarget{store: store, prefix: prefix}
}

func (t *FlagTarget) String() string { return t.prefix }
func (t *FlagTarget) Kind() Kind     { return KindFlag }

// Prefix — префикс данных.
func (t *FlagTarget) Prefix() string { return t.prefix }

// MarkerURL — адрес объекта _SUCCESS.
func (t *FlagTarget) MarkerURL() string { return t.prefix + SuccessMarker }

func (t *FlagTarget) Exists(ctx context.Context) (bool, error) {
	ok, err := t.store.Exists(ctx, t.MarkerURL())
	if err != nil {
		return false, unavailable(t, err)
	}
	return ok, nil
}

// MarkComplete записывает пустой _SUCCESS (перезаписывая существующий).
func (t *FlagTarget) MarkComplete(ctx context.Context) error {
	if err := t.store.Put(ctx, t.MarkerURL(), bytes.NewReader(nil), 0); err != nil {
		return fmt.Errorf("write %s: %w", t.MarkerURL(), err)
	}
	return nil
}

// HDFSTarget — путь в распределённой ФС, проверяется через `hadoop fs -test -e`.
type HDFSTarget struct {
	runner    command.Runner
	hadoopBin string
	path      string
}

// NewHDFS создаёт HDFSTarget.
func NewHDFS(runner command.Runner, hadoopBin, path string) *HDFSTarget {
	return &HDFSTarget{runner: runner, hadoopBin: hadoopBin, path: path}
}

func (t *HDFSTarget) String() string { return t.path }
func (t *HDFSTarget) Kind() Kind     { return KindDistributedFS }

// Path — путь в HDFS.
func (t *HDFSTarget) Path() string { return t.path }

// Exists: код 0 — есть, код 1 — нет, остальное — сбой.
func (t *HDFSTarget) Exists(ctx context.Context) (bool, error) {
	err := t.runner.Run(ctx, command.Cmd{
		Name: t.hadoopBin,
		Args: []string{"fs", "-test", "-e", t.path},
	})
	if err == nil {
		return true, nil
	}
	if command.ExitCode(err) == 1 {
		return false, nil
	}
	return false, unavailable(t, err)
}

// MarkComplete проверяет, что путь записан действием задачи.
func (t *HDFSTarget) MarkComplete(ctx context.Context) error {
	return requirePresent(ctx, t)
}

func requirePresent(ctx context.Context, t Target) error {
	ok, err := t.Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIncompleteOutput, t)
	}
	return nil
}
