package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/eggo/internal/domain"
)

// ErrMaxPasses — проход так и не сошёлся за MaxPasses попыток.
var ErrMaxPasses = errors.New("pipeline did not converge")

// PassFunc — один проход разрешения графа.
type PassFunc func(ctx context.Context) error

// Scheduler повторяет проход по расписанию, пока он не завершится успешно.
//
// Повторный проход пропускает готовые задачи, поэтому каждая попытка
// продолжает с места предыдущей ошибки. Фатальные ошибки конфигурации
// (domain.IsFatal) останавливают повторы сразу.
type Scheduler struct {
	schedule  cron.Schedule
	pass      PassFunc
	logger    *slog.Logger
	immediate bool
	maxPasses int

	// подменяются в тестах
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	// CronExpr — расписание попыток, например "*/15 * * * *" или "@every 10m".
	CronExpr string

	// Timezone — timezone расписания (default: локальная).
	Timezone string

	Pass   PassFunc
	Logger *slog.Logger

	// Immediate — первая попытка сразу, не дожидаясь тика.
	Immediate bool

	// MaxPasses — предел попыток (0 — без предела).
	MaxPasses int
}

// New создаёт новый Scheduler.
func New(cfg Config) (*Scheduler, error) {
	schedule, err := ParseSchedule(cfg.CronExpr, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedule:  schedule,
		pass:      cfg.Pass,
		logger:    logger,
		immediate: cfg.Immediate,
		maxPasses: cfg.MaxPasses,
		now:       time.Now,
		after:     time.After,
	}, nil
}

// Run выполняет попытки до успеха, фатальной ошибки, исчерпания
// MaxPasses или отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if attempt > 1 || !s.immediate {
			if err := s.wait(ctx); err != nil {
				return err
			}
		}

		s.logger.Info("starting scheduled pass", "attempt", attempt)

		err := s.pass(ctx)
		if err == nil {
			s.logger.Info("pipeline converged", "attempts", attempt)
			return nil
		}
		if domain.IsFatal(err) {
			s.logger.Error("fatal error, stopping", "attempt", attempt, "error", err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		s.logger.Warn("pass failed, will retry on next tick", "attempt", attempt, "error", err)

		if s.maxPasses > 0 && attempt >= s.maxPasses {
			return fmt.Errorf("%w after %d passes: %w", ErrMaxPasses, attempt, lastErr)
		}
	}
}

// wait ждёт следующего тика расписания.
func (s *Scheduler) wait(ctx context.Context) error {
	now := s.now()
	next := s.schedule.Next(now)
	s.logger.Debug("waiting for next tick", "next", next.Format(time.RFC3339))

	select {
	case <-s.after(next.Sub(now)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
