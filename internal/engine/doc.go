// Package engine — движок разрешения графа задач.
//
// Включает:
//   - task.go     — интерфейс Task и идентичность задач
//   - resolver.go — проход разрешения: DFS с мемоизацией по ID,
//     пропуск готовых задач, обнаружение циклов
//   - dag.go      — статический граф замыкания и топологический порядок (Plan)
//   - observer.go — наблюдатели событий задач (журнал, метрики)
//
// Единственный примитив синхронизации — существование Target'ов.
// Повторный проход с теми же корнями пропускает всё, что уже готово,
// и выполняет только недостающее поддерево.
package engine
