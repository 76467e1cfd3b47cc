package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/engine"
)

// TaskRunRecorder сохраняет состояние задачи.
type TaskRunRecorder interface {
	Record(ctx context.Context, tr *domain.TaskRun) error
}

// Ledger — наблюдатель прохода, записывающий события задач в журнал.
// Сбой записи не прерывает проход: журнал вторичен по отношению к targets.
type Ledger struct {
	recorder TaskRunRecorder
	logger   *slog.Logger
}

var _ engine.Observer = (*Ledger)(nil)

// NewLedger создаёт Ledger.
func NewLedger(recorder TaskRunRecorder, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{recorder: recorder, logger: logger}
}

// Observe реализует engine.Observer.
func (l *Ledger) Observe(ctx context.Context, ev engine.Event) {
	tr := TaskRunFromEvent(ev)
	if err := l.recorder.Record(ctx, tr); err != nil {
		l.logger.Warn("failed to record task run",
			"run_id", ev.RunID,
			"task_id", ev.TaskID,
			"status", ev.Status,
			"error", err,
		)
	}
}

// TaskRunFromEvent строит запись журнала из события.
func TaskRunFromEvent(ev engine.Event) *domain.TaskRun {
	tr := &domain.TaskRun{
		ID:         uuid.New(),
		RunID:      ev.RunID,
		TaskID:     ev.TaskID,
		Status:     ev.Status,
		StartedAt:  timePtr(ev.StartedAt),
		FinishedAt: timePtr(ev.FinishedAt),
		CreatedAt:  time.Now(),
	}
	if ev.Err != nil {
		tr.Error = ev.Err.Error()
	}
	return tr
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
