// Package repo — журнал проходов в PostgreSQL (pgx).
//
// Журнал вторичен: источник истины о готовности — существование targets.
// Таблицы:
//   - runs — один проход (датасет, конвейер, статус, сколько задач
//     выполнено и пропущено, ошибка первой упавшей задачи);
//   - task_runs — последнее состояние каждой задачи внутри прохода.
//
// Ledger подключается к Resolver как engine.Observer.
package repo
