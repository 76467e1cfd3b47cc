package worker

import "errors"

// Ошибки воркера.
var (
	// ErrNoConnection — воркер запущен без соединения с RabbitMQ.
	ErrNoConnection = errors.New("worker has no amqp connection")

	// ErrMapperItemFailed — mapper не смог обработать строку.
	ErrMapperItemFailed = errors.New("mapper item failed")
)
