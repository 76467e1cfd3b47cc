package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/telemetry"
)

// AMQP раздаёт строки через RabbitMQ воркерам eggo-worker.
//
// Каждая строка публикуется отдельным item.ready с ReplyTo на приватную
// очередь. Dispatch ждёт по одному item.completed на каждый индекс строки.
type AMQP struct {
	Conn       *mq.Connection
	Publisher  *mq.Publisher
	Partitions download.PartitionStore
	Logger     *slog.Logger
}

// Dispatch публикует строки и собирает ответы.
func (a *AMQP) Dispatch(ctx context.Context, job download.Job) error {
	logger := telemetry.FromContextOr(ctx, a.Logger).With("job_id", job.ID)

	r, err := a.Partitions.Open(ctx, job.Partition)
	if err != nil {
		return fmt.Errorf("open partition %s: %w", job.Partition, err)
	}
	lines, err := download.ReadLines(r)
	r.Close()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	replyQueue, err := mq.DeclareReplyQueue(ctx, a.Conn)
	if err != nil {
		return err
	}
	// подписка до публикации, чтобы не потерять быстрые ответы
	replies, err := mq.ConsumeQueue(ctx, a.Conn, replyQueue)
	if err != nil {
		return err
	}

	for i, line := range lines {
		payload := mq.ItemReadyPayload{
			JobID:       job.ID,
			Index:       i,
			Destination: job.Destination,
			Line:        line,
		}
		if err := a.Publisher.PublishItemReady(ctx, payload, replyQueue); err != nil {
			return fmt.Errorf("publish item %d: %w", i, err)
		}
	}
	logger.Info("partition items published", "items", len(lines), "reply_queue", replyQueue)

	return collectReplies(ctx, logger, job.ID, len(lines), replies)
}

// collectReplies ждёт по одному ответу на каждый индекс 0..n-1.
// Дубликаты и ответы чужих заданий игнорируются.
func collectReplies(ctx context.Context, logger *slog.Logger, jobID string, n int, replies <-chan amqp.Delivery) error {
	pending := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		pending[i] = struct{}{}
	}
	failures := make(map[int]string)

	for len(pending) > 0 {
		var raw amqp.Delivery
		var ok bool

		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok = <-replies:
			if !ok {
				return fmt.Errorf("%w: %d of %d items unanswered", ErrReplyQueueLost, len(pending), n)
			}
		}

		msg, err := mq.DecodeMessage(raw.Body)
		if err != nil {
			logger.Warn("ignoring malformed reply", "error", err)
			continue
		}
		if msg.Type != mq.MessageTypeItemCompleted {
			continue
		}
		payload, err := mq.ParsePayload[mq.ItemCompletedPayload](&msg)
		if err != nil {
			logger.Warn("ignoring malformed reply payload", "error", err)
			continue
		}
		if payload.JobID != jobID {
			continue
		}
		if _, ok := pending[payload.Index]; !ok {
			continue
		}

		delete(pending, payload.Index)
		if payload.Status == mq.ItemStatusFailed {
			failures[payload.Index] = fmt.Sprintf("item %d (%s): %s", payload.Index, payload.URL, payload.Error)
		}
		logger.Debug("item reply received",
			"index", payload.Index,
			"status", payload.Status,
			"remaining", len(pending),
		)
	}

	if len(failures) > 0 {
		idx := make([]int, 0, len(failures))
		for i := range failures {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		msgs := make([]string, 0, len(idx))
		for _, i := range idx {
			msgs = append(msgs, failures[i])
		}
		return fmt.Errorf("%w: %d of %d: %s", ErrItemsFailed, len(failures), n, strings.Join(msgs, "; "))
	}
	return nil
}
