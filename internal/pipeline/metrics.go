package pipeline

import (
	"context"

	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/telemetry"
)

// MetricsObserver учитывает финальные статусы задач в Prometheus.
func MetricsObserver() engine.Observer {
	return engine.ObserverFunc(func(_ context.Context, ev engine.Event) {
		if !ev.Status.IsTerminal() {
			return
		}
		telemetry.RecordTask(ev.TaskID, string(ev.Status), ev.Duration())
	})
}
