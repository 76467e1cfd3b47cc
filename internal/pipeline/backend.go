package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/dispatch"
	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/objstore"
)

// Backend — исполнительный слой fan-out: диспетчер и место хранения
// partition-файлов, которое ему доступно.
type Backend struct {
	Dispatcher   download.Dispatcher
	Partitions   download.PartitionStore
	PartitionDir string
}

// BackendDeps — зависимости для NewBackend.
type BackendDeps struct {
	Env       config.Env
	Runner    command.Runner
	Store     objstore.Store
	Processor *download.Processor
	Conn      *mq.Connection
	Logger    *slog.Logger
}

// NewBackend выбирает исполнительный слой по имени.
//
//   - hadoop — streaming job, partition-файлы в HDFS;
//   - amqp   — воркеры eggo-worker, partition-файлы в object store;
//   - local  — в текущем процессе, partition-файлы в object store.
func NewBackend(kind string, deps BackendDeps) (Backend, error) {
	objectPartitions := &download.ObjectPartitions{Store: deps.Store}
	objectDir := deps.Env.TmpObjectURL("partitions")

	switch kind {
	case config.DispatcherHadoop, "":
		return Backend{
			Dispatcher: dispatch.NewHadoop(deps.Runner, deps.Env),
			Partitions: &download.HDFSPartitions{
				Runner:    deps.Runner,
				HadoopBin: deps.Env.HadoopBin(),
				TempDir:   os.TempDir(),
			},
			PartitionDir: deps.Env.PartitionDir,
		}, nil

	case config.DispatcherAMQP:
		if deps.Conn == nil {
			return Backend{}, ErrNoBroker
		}
		return Backend{
			Dispatcher: &dispatch.AMQP{
				Conn:       deps.Conn,
				Publisher:  mq.NewPublisher(deps.Conn, deps.Logger),
				Partitions: objectPartitions,
				Logger:     deps.Logger,
			},
			Partitions:   objectPartitions,
			PartitionDir: objectDir,
		}, nil

	case config.DispatcherLocal:
		return Backend{
			Dispatcher: &dispatch.Local{
				Partitions: objectPartitions,
				Processor:  deps.Processor,
				Logger:     deps.Logger,
			},
			Partitions:   objectPartitions,
			PartitionDir: objectDir,
		}, nil

	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownDispatcher, kind)
	}
}
