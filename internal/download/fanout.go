package download

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/target"
	"github.com/shaiso/eggo/internal/telemetry"
)

// Job — одно задание fan-out для вычислительного слоя.
type Job struct {
	ID          string
	Partition   string // путь partition-файла
	Destination string // префикс назначения
	Items       int    // количество строк
}

// Dispatcher раздаёт строки partition-файла исполнителям.
//
// Контракт: возврат без ошибки означает, что каждая строка была обработана
// хотя бы одним завершившимся исполнителем. FanoutDownloadTask всё равно
// перепроверяет результат по существованию объектов.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// PreparePartitionTask пишет partition-файл. Готовность — его наличие.
type PreparePartitionTask struct {
	svc     *Services
	Dataset string
	Sources []config.SourceDescriptor
	Path    string
}

// NewPreparePartitionTask создаёт задачу подготовки partition-файла.
func NewPreparePartitionTask(svc *Services, dataset string, sources []config.SourceDescriptor, p string) *PreparePartitionTask {
	return &PreparePartitionTask{svc: svc, Dataset: dataset, Sources: sources, Path: p}
}

func (t *PreparePartitionTask) ID() string {
	return engine.FormatID("PreparePartition", "path", t.Path)
}

func (t *PreparePartitionTask) Requires() []engine.Task { return nil }

func (t *PreparePartitionTask) Outputs() []target.Target {
	return []target.Target{t.svc.Partitions.Target(t.Path)}
}

func (t *PreparePartitionTask) Run(ctx context.Context) error {
	data, err := EncodePartition(t.Sources)
	if err != nil {
		return err
	}
	telemetry.FromContext(ctx).Info("writing partition file",
		"path", t.Path,
		"items", len(t.Sources),
	)
	return t.svc.Partitions.Put(ctx, t.Path, data)
}

// FanoutDownloadTask — распределённая загрузка всех источников датасета.
//
// Флаг _SUCCESS под Destination пишется только если после Dispatch
// существует объект для каждого источника (всё или ничего).
type FanoutDownloadTask struct {
	svc         *Services
	Dataset     string
	Sources     []config.SourceDescriptor
	Destination string
	Partition   string
}

// NewFanoutDownloadTask создаёт задачу fan-out загрузки.
func NewFanoutDownloadTask(svc *Services, dataset string, sources []config.SourceDescriptor, destination, partitionDir string) (*FanoutDownloadTask, error) {
	p, err := PartitionPath(partitionDir, dataset, sources)
	if err != nil {
		return nil, err
	}
	return &FanoutDownloadTask{
		svc:         svc,
		Dataset:     dataset,
		Sources:     sources,
		Destination: destination,
		Partition:   p,
	}, nil
}

func (t *FanoutDownloadTask) ID() string {
	return engine.FormatID("FanoutDownload", "dataset", t.Dataset, "destination", t.Destination)
}

func (t *FanoutDownloadTask) Requires() []engine.Task {
	return []engine.Task{NewPreparePartitionTask(t.svc, t.Dataset, t.Sources, t.Partition)}
}

func (t *FanoutDownloadTask) Outputs() []target.Target {
	return []target.Target{target.NewFlag(t.svc.Store, t.Destination)}
}

func (t *FanoutDownloadTask) Run(ctx context.Context) error {
	job := Job{
		ID:          uuid.NewString(),
		Partition:   t.Partition,
		Destination: t.Destination,
		Items:       len(t.Sources),
	}

	logger := telemetry.FromContext(ctx).With("job_id", job.ID)
	logger.Info("dispatching partition", "partition", job.Partition, "items", job.Items)

	if err := t.svc.Dispatcher.Dispatch(ctx, job); err != nil {
		return fmt.Errorf("dispatch %s: %w", job.Partition, err)
	}

	missing, err := t.Missing(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %d of %d items missing: %s",
			domain.ErrIncompleteFanout, len(missing), len(t.Sources), strings.Join(missing, ", "))
	}

	logger.Info("all partition items present")
	return nil
}

// Missing возвращает URL источников, чьих объектов ещё нет в Destination.
func (t *FanoutDownloadTask) Missing(ctx context.Context) ([]string, error) {
	var missing []string
	for _, src := range t.Sources {
		dest := config.JoinURL(t.Destination, DestinationName(src.URL, src.Compression))
		ok, err := t.svc.Store.Exists(ctx, dest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrTargetUnavailable, dest, err)
		}
		if !ok {
			missing = append(missing, src.URL)
		}
	}
	return missing, nil
}
