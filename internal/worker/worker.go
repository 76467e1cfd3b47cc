package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/mq"
)

// Default configuration values.
const (
	defaultPrefetch = 1
)

// Replier отправляет ответ по строке в reply-очередь.
type Replier interface {
	PublishItemCompleted(ctx context.Context, replyTo mq.Queue, payload mq.ItemCompletedPayload) error
}

// Worker потребляет строки partition-файлов из RabbitMQ.
type Worker struct {
	processor *download.Processor
	publisher Replier
	conn      *mq.Connection

	consumer *mq.Consumer
	prefetch int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Processor *download.Processor
	Publisher Replier
	Conn      *mq.Connection

	// Prefetch — сколько строк воркер берёт одновременно (default: 1).
	// Загрузки долгие, поэтому по умолчанию по одной.
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		processor: cfg.Processor,
		publisher: cfg.Publisher,
		conn:      cfg.Conn,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает consumer очереди partition.items.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return ErrNoConnection
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueuePartitionItems,
		Handler:  w.handleItemReady,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("item consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт текущую обработку.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
