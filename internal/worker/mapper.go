package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/telemetry"
)

// RunMapper — цикл mapper'а Hadoop streaming.
//
// Каждая строка stdin ("<offset>\t<json>") обрабатывается Processor'ом,
// в stdout пишется "<url>\t1". Ошибка строки завершает mapper с ошибкой:
// Hadoop перезапустит попытку map-задачи, а проход увидит упавший job.
func RunMapper(ctx context.Context, r io.Reader, w io.Writer, p *download.Processor, destination string) error {
	logger := telemetry.FromContext(ctx)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	out := bufio.NewWriter(w)
	defer out.Flush()

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		res, err := p.Process(ctx, destination, line)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMapperItemFailed, res.URL, err)
		}
		logger.Info("mapper item done", "url", res.URL, "skipped", res.Skipped)

		if _, err := fmt.Fprintf(out, "%s\t1\n", res.URL); err != nil {
			return fmt.Errorf("write mapper output: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read mapper input: %w", err)
	}
	return out.Flush()
}
