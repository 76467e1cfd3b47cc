// Package telemetry обеспечивает наблюдаемость eggo.
//
// Включает:
//   - logging.go — structured logging через slog, логгер в context
//   - metrics.go — Prometheus метрики задач, загрузок и fan-out
//
// eggo-worker отдаёт метрики на /metrics, CLI после прохода
// пушит их в Pushgateway (PUSHGATEWAY_URL).
package telemetry
