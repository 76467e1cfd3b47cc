package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeItemReady     MessageType = "item.ready"
	MessageTypeItemCompleted MessageType = "item.completed"
)

// Статусы обработки строки.
const (
	ItemStatusSucceeded = "SUCCEEDED"
	ItemStatusSkipped   = "SKIPPED"
	ItemStatusFailed    = "FAILED"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// ItemReadyPayload — строка partition-файла для исполнителя.
type ItemReadyPayload struct {
	JobID       string `json:"job_id"`
	Index       int    `json:"index"`
	Destination string `json:"destination"`
	Line        string `json:"line"`
}

// ItemCompletedPayload — ответ исполнителя по одной строке.
type ItemCompletedPayload struct {
	JobID  string `json:"job_id"`
	Index  int    `json:"index"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status"` // SUCCEEDED, SKIPPED или FAILED
	Error  string `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	return p.publish(ctx, exchange, routingKey, msg, amqp.Publishing{
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
	})
}

func (p *Publisher) publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message, pub amqp.Publishing) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub.ContentType = "application/json"
	pub.MessageId = msg.ID
	pub.Timestamp = msg.Timestamp
	pub.Type = string(msg.Type)
	pub.Body = body

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,              // mandatory
			false,              // immediate
			pub,
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishItemReady публикует строку partition-файла.
// Ответ исполнитель отправит в очередь replyTo.
// Потребитель: eggo-worker.
func (p *Publisher) PublishItemReady(ctx context.Context, payload ItemReadyPayload, replyTo Queue) error {
	msg := NewMessage(MessageTypeItemReady, payload)
	return p.publish(ctx, ExchangePartitions, RoutingKeyItemReady, msg, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ReplyTo:       string(replyTo),
		CorrelationId: payload.JobID,
	})
}

// PublishItemCompleted отправляет ответ в reply-очередь диспетчера.
func (p *Publisher) PublishItemCompleted(ctx context.Context, replyTo Queue, payload ItemCompletedPayload) error {
	msg := NewMessage(MessageTypeItemCompleted, payload)
	return p.publish(ctx, ExchangeDefault, RoutingKey(replyTo), msg, amqp.Publishing{
		CorrelationId: payload.JobID,
	})
}
