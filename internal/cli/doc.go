// Package cli реализует инструмент командной строки eggo.
//
// # Обзор
//
// CLI — точка входа оператора: запускает проходы конвейера, показывает
// готовность задач, удаляет датасеты и читает журнал проходов.
// Окружение (бакет, Hadoop, ADAM, брокер, БД) берётся из переменных
// окружения через config.FromEnv один раз при старте.
//
// # Ключевые компоненты
//
// ## App и Session
//
// App хранит окружение и логгер. App.Open открывает ресурсы одной
// команды: object store, runner внешних команд, при наличии DB_URL —
// журнал в PostgreSQL, в режиме amqp — соединение с RabbitMQ.
// Session.Close освобождает их.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) и логи — в stderr.
// Это позволяет использовать pipe: eggo status demo.hcl --json | jq .
//
// ## Commands
//
//   - run CONFIG       — проход конвейера
//   - status CONFIG    — готовность задач без выполнения
//   - delete CONFIG    — удалить сырые данные и редакции датасета
//   - schedule CONFIG  — повторять проход по cron до успеха
//   - map              — mapper Hadoop streaming (stdin → stdout)
//   - history          — журнал проходов (list, show)
//   - pipelines        — зарегистрированные конвейеры
//
// Каждая команда создаётся фабричной функцией, принимающей appFn и
// outputFn — замыкания для ленивого создания App и Output после
// парсинга PersistentFlags.
package cli
