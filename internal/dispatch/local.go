package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/telemetry"
)

// Local обрабатывает строки в текущем процессе по одной.
// Ошибка строки не останавливает остальные: элементы независимы.
type Local struct {
	Partitions download.PartitionStore
	Processor  *download.Processor
	Logger     *slog.Logger
}

// Dispatch обрабатывает все строки partition-файла.
func (l *Local) Dispatch(ctx context.Context, job download.Job) error {
	logger := telemetry.FromContextOr(ctx, l.Logger)

	r, err := l.Partitions.Open(ctx, job.Partition)
	if err != nil {
		return fmt.Errorf("open partition %s: %w", job.Partition, err)
	}
	lines, err := download.ReadLines(r)
	r.Close()
	if err != nil {
		return err
	}

	var errs []error
	for i, line := range lines {
		res, err := l.Processor.Process(ctx, job.Destination, line)
		if err != nil {
			logger.Warn("partition item failed", "index", i, "url", res.URL, "error", err)
			errs = append(errs, fmt.Errorf("item %d (%s): %w", i, res.URL, err))
			continue
		}
		logger.Info("partition item done", "index", i, "url", res.URL, "skipped", res.Skipped)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d: %w", ErrItemsFailed, len(errs), len(lines), errors.Join(errs...))
	}
	return nil
}
