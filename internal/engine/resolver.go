package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/telemetry"
)

// Config — конфигурация Resolver.
type Config struct {
	Logger    *slog.Logger
	Observers []Observer

	// now подменяется в тестах.
	now func() time.Time
}

// Resolver выполняет проходы разрешения графа.
//
// Проход однопоточный. Параллелизм между независимыми поддеревьями
// достигается отдельными проходами в разных процессах: существование
// targets — единственная синхронизация между ними.
type Resolver struct {
	logger    *slog.Logger
	observers Observers
	now       func() time.Time
}

// NewResolver создаёт Resolver.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		logger:    logger,
		observers: Observers(cfg.Observers),
		now:       now,
	}
}

// Result — итог прохода.
//
// При ошибке Result тоже возвращается: в нём видно, что успело выполниться.
type Result struct {
	RunID    uuid.UUID
	Executed []string // в порядке выполнения
	Skipped  []string // готовые до начала прохода
	Statuses map[string]domain.TaskStatus
}

// Status возвращает статус задачи (PENDING для незатронутых).
func (r *Result) Status(taskID string) domain.TaskStatus {
	if s, ok := r.Statuses[taskID]; ok {
		return s
	}
	return domain.TaskStatusPending
}

// Resolve выполняет проход с новым run ID.
func (r *Resolver) Resolve(ctx context.Context, roots ...Task) (*Result, error) {
	return r.ResolveRun(ctx, uuid.New(), roots...)
}

// ResolveRun выполняет проход разрешения для корней.
//
// Для каждой задачи в обходе в глубину:
//  1. все Outputs существуют — задача пропускается вместе с поддеревом;
//  2. иначе сначала разрешаются зависимости, затем вызывается Run
//     и MarkComplete для каждого Output;
//  3. ошибка действия прерывает проход, зависимые задачи не выполняются.
//
// Ошибка — *TaskError (первая упавшая задача) или *GraphError (цикл).
func (r *Resolver) ResolveRun(ctx context.Context, runID uuid.UUID, roots ...Task) (*Result, error) {
	res := &Result{
		RunID:    runID,
		Statuses: make(map[string]domain.TaskStatus),
	}
	if len(roots) == 0 {
		return res, ErrNoRoots
	}

	p := &pass{
		r:      r,
		res:    res,
		logger: telemetry.WithRunID(r.logger, runID.String()),
		state:  make(map[string]visitState),
	}

	for _, root := range roots {
		if err := p.visit(ctx, root); err != nil {
			return res, err
		}
	}

	p.logger.Info("resolution pass finished",
		"executed", len(res.Executed),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// pass — состояние одного прохода. Живёт только внутри ResolveRun.
type pass struct {
	r      *Resolver
	res    *Result
	logger *slog.Logger
	state  map[string]visitState
	stack  []string
}

func (p *pass) visit(ctx context.Context, t Task) error {
	id := t.ID()

	switch p.state[id] {
	case visited:
		return nil
	case visiting:
		start := slices.Index(p.stack, id)
		path := append(slices.Clone(p.stack[start:]), id)
		return &GraphError{Path: path}
	}

	p.state[id] = visiting
	p.stack = append(p.stack, id)
	defer func() {
		p.stack = p.stack[:len(p.stack)-1]
	}()

	logger := telemetry.WithTaskID(p.logger, id)

	complete, err := Complete(ctx, t)
	if err != nil {
		return p.fail(ctx, logger, id, time.Time{}, err)
	}
	logger.Debug("completeness checked", "complete", complete)

	if complete {
		now := p.r.now()
		p.state[id] = visited
		p.res.Statuses[id] = domain.TaskStatusSkipped
		p.res.Skipped = append(p.res.Skipped, id)
		p.observe(ctx, Event{TaskID: id, Status: domain.TaskStatusSkipped, StartedAt: now, FinishedAt: now})
		logger.Info("task already complete, skipping")
		return nil
	}

	p.res.Statuses[id] = domain.TaskStatusPending
	for _, dep := range t.Requires() {
		if err := p.visit(ctx, dep); err != nil {
			return err
		}
	}

	// Отмена останавливает запуск новых задач, но не уже запущенные команды.
	if err := ctx.Err(); err != nil {
		return err
	}

	started := p.r.now()
	p.res.Statuses[id] = domain.TaskStatusRunning
	p.observe(ctx, Event{TaskID: id, Status: domain.TaskStatusRunning, StartedAt: started})
	logger.Info("task started")

	taskCtx := telemetry.WithLogger(ctx, logger)
	if err := t.Run(taskCtx); err != nil {
		return p.fail(ctx, logger, id, started, err)
	}
	for _, out := range t.Outputs() {
		if err := out.MarkComplete(taskCtx); err != nil {
			return p.fail(ctx, logger, id, started, err)
		}
	}

	finished := p.r.now()
	p.state[id] = visited
	p.res.Statuses[id] = domain.TaskStatusSucceeded
	p.res.Executed = append(p.res.Executed, id)
	p.observe(ctx, Event{TaskID: id, Status: domain.TaskStatusSucceeded, StartedAt: started, FinishedAt: finished})
	logger.Info("task succeeded", "duration", finished.Sub(started))
	return nil
}

func (p *pass) fail(ctx context.Context, logger *slog.Logger, id string, started time.Time, err error) error {
	finished := p.r.now()
	if started.IsZero() {
		started = finished
	}
	p.state[id] = visited
	p.res.Statuses[id] = domain.TaskStatusFailed
	p.observe(ctx, Event{TaskID: id, Status: domain.TaskStatusFailed, Err: err, StartedAt: started, FinishedAt: finished})
	logger.Warn("task failed", "error", err)
	return &TaskError{TaskID: id, Err: err}
}

func (p *pass) observe(ctx context.Context, ev Event) {
	ev.RunID = p.res.RunID
	p.r.observers.Observe(ctx, ev)
}
