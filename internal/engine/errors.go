package engine

import (
	"errors"
	"strings"

	"github.com/shaiso/eggo/internal/domain"
)

// ErrNoRoots — проход запущен без корневых задач.
var ErrNoRoots = errors.New("no root tasks")

// TaskError — первая упавшая задача прохода.
type TaskError struct {
	TaskID string
	Err    error
}

// Error реализует интерфейс error.
func (e *TaskError) Error() string {
	return "task " + e.TaskID + ": " + e.Err.Error()
}

// Unwrap возвращает исходную ошибку действия.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// GraphError — нарушение структуры графа (цикл).
type GraphError struct {
	// Path — цепочка ID от первого вхождения задачи до повторного.
	Path []string
}

// Error реализует интерфейс error.
func (e *GraphError) Error() string {
	if len(e.Path) == 0 {
		return domain.ErrCyclicDependency.Error()
	}
	return domain.ErrCyclicDependency.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Unwrap возвращает domain.ErrCyclicDependency.
func (e *GraphError) Unwrap() error {
	return domain.ErrCyclicDependency
}
