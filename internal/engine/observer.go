package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/domain"
)

// Event — смена статуса задачи внутри прохода.
type Event struct {
	RunID      uuid.UUID
	TaskID     string
	Status     domain.TaskStatus
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration — длительность выполнения (0 для незавершённых).
func (e Event) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Observer получает события задач. Ошибки наблюдателя не влияют на проход.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc адаптирует функцию к Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe вызывает f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Observers рассылает событие всем наблюдателям по порядку.
type Observers []Observer

// Observe реализует Observer.
func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}
