// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect (cenkalti/backoff)
//   - topology.go   — объявление exchanges, queues, bindings, reply-очередей
//   - publisher.go  — публикация сообщений и ответов
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - item.ready      — строка partition-файла готова к обработке
//   - item.completed  — ответ исполнителя в reply-очередь диспетчера
//
// Exchanges:
//   - eggo.partitions — раздача строк partition-файлов
//   - eggo.dlq        — dead letter queue
package mq
