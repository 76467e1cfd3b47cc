package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrReject — строку partition нельзя обработать ни на одном воркере
// (битый payload). Сообщение уходит в DLQ, а не обратно в очередь.
var ErrReject = errors.New("message rejected")

// Handler обрабатывает одну доставку.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — сообщение о строке partition и его AMQP-оригинал.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// ReplyTo — reply-очередь диспетчера (пусто, если ответ не ожидается).
func (d *Delivery) ReplyTo() Queue {
	return Queue(d.Raw.ReplyTo)
}

// Settlement — чем закончить доставку после обработчика.
type Settlement int

const (
	SettleAck Settlement = iota
	SettleRequeue
	SettleDeadLetter
)

func (s Settlement) String() string {
	switch s {
	case SettleAck:
		return "ack"
	case SettleRequeue:
		return "requeue"
	default:
		return "dead-letter"
	}
}

// Settle выбирает исход по ошибке обработчика.
//
// Сбой публикации ответа или потеря канала — requeue: строку возьмёт
// другой воркер, повторная загрузка отсечётся проверкой назначения.
func Settle(err error) Settlement {
	switch {
	case err == nil:
		return SettleAck
	case errors.Is(err, ErrReject):
		return SettleDeadLetter
	default:
		return SettleRequeue
	}
}

// Consumer читает строки partition из очереди и переживает reconnect.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	cancel context.CancelFunc
}

// ConsumerConfig — параметры Consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — сколько строк воркер держит неподтверждёнными (default: 1).
	// Загрузки длинные, поэтому больше одной обычно не нужно.
	Prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: cfg.Prefetch,
	}
}

// Start блокируется до отмены ctx или Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consuming partition items")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// канал доставок закрылся вместе с соединением
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("broker reconnected, resubscribing")
		}
	}
}

// Stop прерывает Start. Текущая строка дорабатывает, неподтверждённые
// вернутся в очередь при закрытии канала.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	// manual ack, consumer tag генерирует брокер
	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return deliveries, nil
}

// drain обрабатывает доставки, пока канал открыт и ctx жив.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.deliver(ctx, raw)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, raw amqp.Delivery) {
	msg, err := DecodeMessage(raw.Body)
	if err == nil {
		c.logger.Debug("received partition item", "message_id", msg.ID, "type", msg.Type)
		err = c.handler(ctx, &Delivery{Message: msg, Raw: raw})
	} else {
		err = fmt.Errorf("%w: %w", ErrReject, err)
	}

	s := Settle(err)
	if s != SettleAck {
		c.logger.Error("partition item not processed",
			"message_id", msg.ID,
			"settlement", s.String(),
			"error", err,
		)
	}

	var ackErr error
	switch s {
	case SettleAck:
		ackErr = raw.Ack(false)
	case SettleRequeue:
		ackErr = raw.Nack(false, true)
	case SettleDeadLetter:
		ackErr = raw.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Warn("failed to settle delivery", "settlement", s.String(), "error", ackErr)
	}
}

// DecodeMessage разбирает тело AMQP сообщения в конверт Message.
func DecodeMessage(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("unmarshal message: %w", err)
	}
	return msg, nil
}

// ConsumeQueue подписывается на reply-очередь диспетчера: auto-ack,
// exclusive, без переподключения. Закрытие канала доставок означает,
// что очередь потеряна вместе с соединением.
func ConsumeQueue(ctx context.Context, conn *Connection, queue Queue) (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		d, err := ch.Consume(string(queue), "", true, true, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		deliveries = d
		return nil
	})
	return deliveries, err
}

// ParsePayload приводит Message.Payload к конкретному типу.
// После DecodeMessage payload — map[string]any, поэтому он
// перекодируется через JSON.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
