// eggo — конвейер загрузки и конвертации геномных датасетов в ADAM.
//
// Использование:
//
//	eggo [--json] <command> [flags]
//
// Команды:
//
//	run       Проход конвейера для датасета
//	status    Готовность задач без выполнения
//	delete    Удаление сырых данных и редакций датасета
//	schedule  Повтор прохода по cron до успеха
//	history   Журнал проходов
//	pipelines Зарегистрированные конвейеры
//
// Окружение задаётся переменными (EGGO_BUCKET_URL, HADOOP_HOME, ADAM_HOME,
// EGGO_DISPATCHER, DB_URL, RABBITMQ_URL и др.).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/eggo/internal/cli"
	"github.com/shaiso/eggo/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// stdout занят данными команд и выводом mapper'а
	logger := telemetry.NewLogger(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.NewRootCmd(cli.NewApp(logger), version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
