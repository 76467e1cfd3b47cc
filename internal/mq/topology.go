package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangePartitions Exchange = "eggo.partitions"
	ExchangeDLQ        Exchange = "eggo.dlq"

	// ExchangeDefault — default exchange, маршрутизирует по имени очереди.
	// Через него идут ответы в reply-очереди.
	ExchangeDefault Exchange = ""
)

// Queues — имена очередей.
const (
	QueuePartitionItems Queue = "partition.items"
	QueueDLQItems       Queue = "dlq.items"
)

// Routing keys.
const (
	RoutingKeyItemReady RoutingKey = "item.ready"
	RoutingKeyDLQItems  RoutingKey = "items"
)

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangePartitions, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQItems),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// partition.items — непарсимые сообщения уходят в DLQ
		{QueuePartitionItems, dlqArgs},

		// dlq.items — сама DLQ очередь, разбирается вручную
		{QueueDLQItems, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueuePartitionItems, RoutingKeyItemReady, ExchangePartitions},
		{QueueDLQItems, RoutingKeyDLQItems, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// DeclareReplyQueue объявляет приватную очередь ответов с именем от сервера.
// Очередь exclusive и исчезает вместе с соединением.
func DeclareReplyQueue(ctx context.Context, conn *Connection) (Queue, error) {
	var name Queue
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // name (server-named)
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare reply queue: %w", err)
		}
		name = Queue(q.Name)
		return nil
	})
	return name, err
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  eggo RabbitMQ topology:

    eggo.partitions (direct)
    └── partition.items [routing: item.ready]
            Consumer: eggo-worker
            DLQ: dlq.items

    eggo.dlq (direct)
    └── dlq.items [routing: items]
            Manual processing

    (default exchange)
    └── amq.gen-* reply queues, one per dispatch
            Consumer: eggo run (amqp dispatcher)
  `
}
