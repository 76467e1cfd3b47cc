package pipeline

import "errors"

// Ошибки сборки конвейера.
var (
	// ErrUnknownDispatcher — неизвестный режим fan-out.
	ErrUnknownDispatcher = errors.New("unknown dispatcher")

	// ErrNoBroker — режим amqp без соединения с RabbitMQ.
	ErrNoBroker = errors.New("amqp dispatcher requires a broker connection")
)
