package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/telemetry"
)

// handleItemReady обрабатывает строку из очереди partition.items.
func (w *Worker) handleItemReady(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ItemReadyPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse item.ready payload", "error", err)
		return fmt.Errorf("%w: %v", mq.ErrReject, err)
	}

	logger := w.logger.With(
		"job_id", payload.JobID,
		"index", payload.Index,
	)
	logger.Debug("received item.ready event")

	reply := mq.ItemCompletedPayload{
		JobID:  payload.JobID,
		Index:  payload.Index,
		Status: mq.ItemStatusSucceeded,
	}

	res, perr := w.processor.Process(telemetry.WithLogger(ctx, logger), payload.Destination, payload.Line)
	reply.URL = res.URL
	switch {
	case perr != nil:
		reply.Status = mq.ItemStatusFailed
		reply.Error = perr.Error()
		logger.Warn("item failed", "url", res.URL, "error", perr)
	case res.Skipped:
		reply.Status = mq.ItemStatusSkipped
		logger.Info("item already present", "url", res.URL)
	default:
		logger.Info("item transferred", "url", res.URL, "destination", res.Destination)
	}

	replyTo := delivery.ReplyTo()
	if replyTo == "" {
		logger.Warn("item.ready without reply queue, reply dropped")
		return nil
	}

	if err := w.publisher.PublishItemCompleted(ctx, replyTo, reply); err != nil {
		return fmt.Errorf("publish item.completed: %w", err)
	}
	return nil
}
