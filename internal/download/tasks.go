package download

import (
	"context"
	"strconv"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/target"
)

// Services — общие зависимости задач загрузки.
// В идентичность задач не входят.
type Services struct {
	Env        config.Env
	Store      objstore.Store
	Transfer   *Transfer
	Partitions PartitionStore
	Dispatcher Dispatcher
}

// DownloadFileTask — один источник в один объект назначения.
type DownloadFileTask struct {
	svc         *Services
	Source      config.SourceDescriptor
	Destination string
}

// NewDownloadFileTask создаёт задачу загрузки одного файла.
func NewDownloadFileTask(svc *Services, src config.SourceDescriptor, destination string) *DownloadFileTask {
	return &DownloadFileTask{svc: svc, Source: src, Destination: destination}
}

func (t *DownloadFileTask) ID() string {
	return engine.FormatID("DownloadFile",
		"source", t.Source.URL,
		"destination", t.Destination,
		"compression", strconv.FormatBool(t.Source.Compression),
	)
}

func (t *DownloadFileTask) Requires() []engine.Task { return nil }

func (t *DownloadFileTask) Outputs() []target.Target {
	return []target.Target{target.NewObject(t.svc.Store, t.Destination)}
}

func (t *DownloadFileTask) Run(ctx context.Context) error {
	return t.svc.Transfer.Run(ctx, t.Source, t.Destination)
}

// DownloadDatasetTask — последовательная загрузка всех источников.
//
// Каждый источник — отдельная зависимость DownloadFileTask, поэтому
// resolver качает их по одному. Готовность — _SUCCESS под Destination.
type DownloadDatasetTask struct {
	svc         *Services
	Dataset     string
	Sources     []config.SourceDescriptor
	Destination string
}

// NewDownloadDatasetTask создаёт задачу последовательной загрузки.
func NewDownloadDatasetTask(svc *Services, dataset string, sources []config.SourceDescriptor, destination string) *DownloadDatasetTask {
	return &DownloadDatasetTask{svc: svc, Dataset: dataset, Sources: sources, Destination: destination}
}

func (t *DownloadDatasetTask) ID() string {
	return engine.FormatID("DownloadDataset", "dataset", t.Dataset, "destination", t.Destination)
}

func (t *DownloadDatasetTask) Requires() []engine.Task {
	deps := make([]engine.Task, 0, len(t.Sources))
	for _, src := range t.Sources {
		dest := config.JoinURL(t.Destination, DestinationName(src.URL, src.Compression))
		deps = append(deps, NewDownloadFileTask(t.svc, src, dest))
	}
	return deps
}

func (t *DownloadDatasetTask) Outputs() []target.Target {
	return []target.Target{target.NewFlag(t.svc.Store, t.Destination)}
}

// Run ничего не делает: флаг пишет resolver после успешных зависимостей.
func (t *DownloadDatasetTask) Run(_ context.Context) error { return nil }
