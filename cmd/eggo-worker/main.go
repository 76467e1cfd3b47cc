// eggo-worker — обрабатывает строки partition-файлов из RabbitMQ.
//
// Worker:
//   - Получает item.ready из очереди partition.items
//   - Скачивает источник в object store, если объекта ещё нет
//   - Отправляет item.completed в reply-очередь диспетчера
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/telemetry"
	"github.com/shaiso/eggo/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting eggo-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := config.FromEnv()

	store, err := objstore.New(env)
	if err != nil {
		logger.Error("failed to open object store", "error", err)
		os.Exit(1)
	}

	fetchers := fetch.NewFetchers(env, command.NewExecRunner(logger), http.DefaultClient)
	transfer := download.NewTransfer(env, store, fetchers, logger)
	processor := download.NewProcessor(transfer, store)

	// RabbitMQ
	mqURL := env.RabbitMQURL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Processor: processor,
		Publisher: mq.NewPublisher(mqConn, logger),
		Conn:      mqConn,
		Logger:    logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("amqp disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("eggo-worker stopped")
}
