package engine

import (
	"context"
	"strings"

	"github.com/shaiso/eggo/internal/target"
)

// Task — единица работы с зависимостями, действием и результатом.
//
// Задача готова, если все её Outputs существуют. Задача без Outputs
// (обёртка над зависимостями) выполняется в каждом проходе после
// своих зависимостей.
type Task interface {
	// ID — естественный ключ: тип задачи и параметры конструктора.
	ID() string

	// Requires создаёт задачи-зависимости. Вызов не должен иметь
	// побочных эффектов: форма графа определяется только конфигурацией.
	Requires() []Task

	// Outputs — targets, отмечающие готовность задачи.
	Outputs() []target.Target

	// Run выполняет действие. Вызывается только когда все
	// зависимости готовы, не чаще одного раза за проход.
	Run(ctx context.Context) error
}

// FormatID строит ID вида Kind(key=value, ...) из пар ключ-значение.
func FormatID(kind string, kv ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte('(')
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kv[i])
		b.WriteByte('=')
		b.WriteString(kv[i+1])
	}
	b.WriteByte(')')
	return b.String()
}

// Complete сообщает, готова ли задача.
func Complete(ctx context.Context, t Task) (bool, error) {
	return target.AllExist(ctx, t.Outputs())
}

// Wrapper — задача без собственного действия, объединяющая зависимости.
type Wrapper struct {
	Name string
	Deps []Task
}

func (w *Wrapper) ID() string                  { return FormatID("Wrapper", "name", w.Name) }
func (w *Wrapper) Requires() []Task            { return w.Deps }
func (w *Wrapper) Outputs() []target.Target    { return nil }
func (w *Wrapper) Run(_ context.Context) error { return nil }
