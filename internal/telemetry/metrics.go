package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Метрики регистрируются в глобальном registry и отдаются на /metrics
// (eggo-worker) или пушатся в Pushgateway после прохода (CLI).
var (
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eggo_tasks_total",
		Help: "Task outcomes by task kind and status",
	}, []string{"kind", "status"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eggo_task_duration_seconds",
		Help:    "Duration of executed tasks",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"kind"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eggo_runs_total",
		Help: "Resolution passes by final status",
	}, []string{"status"})

	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eggo_downloads_total",
		Help: "Source transfers by mechanism and result",
	}, []string{"mechanism", "result"})

	FanoutItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eggo_fanout_items_total",
		Help: "Partition items processed by workers, by result",
	}, []string{"result"})
)

// TaskKind — тип задачи из ID вида Kind(param=...).
func TaskKind(taskID string) string {
	if kind, _, ok := strings.Cut(taskID, "("); ok {
		return kind
	}
	return taskID
}

// RecordTask учитывает исход задачи. duration учитывается только для
// выполнявшихся задач (> 0).
func RecordTask(taskID, status string, duration time.Duration) {
	kind := TaskKind(taskID)
	TasksTotal.WithLabelValues(kind, status).Inc()
	if duration > 0 {
		TaskDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// Push отправляет все метрики процесса в Pushgateway.
// Пустой url — метрики не отправляются.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
