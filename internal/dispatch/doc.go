// Package dispatch — реализации download.Dispatcher.
//
//   - Hadoop — Hadoop streaming job, строка partition-файла на mapper;
//   - AMQP   — строка на сообщение в RabbitMQ, ответы в приватную очередь;
//   - Local  — последовательная обработка в текущем процессе.
//
// Все три вызывают download.Processor на каждую строку (mapper и
// eggo-worker делают это в своих процессах).
package dispatch
