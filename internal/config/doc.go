// Package config описывает входные данные pipeline.
//
// Включает:
//   - config.go — PipelineConfig и SourceDescriptor, валидация
//   - load.go   — загрузка конфигурации из HCL или JSON файла
//   - env.go    — Env: окружение выполнения (пути, бинарники, ключи)
//
// PipelineConfig неизменяем после загрузки и передаётся в конструкторы задач
// явно; глобального состояния нет.
package config
