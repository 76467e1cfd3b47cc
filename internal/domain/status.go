package domain

// RunStatus — статус прохода разрешения графа (resolution pass).
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED
type RunStatus string

const (
	// RunStatusRunning — проход выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все корневые задачи завершены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — проход прерван первой упавшей задачей.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// TaskStatus — статус задачи внутри одного прохода.
//
// Жизненный цикл:
//
//	PENDING → SKIPPED (выходы уже существуют)
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type TaskStatus string

const (
	// TaskStatusPending — задача обнаружена, но ещё не проверена.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusSkipped — выходы задачи уже существовали, action не вызывался.
	TaskStatusSkipped TaskStatus = "SKIPPED"

	// TaskStatusRunning — action выполняется.
	TaskStatusRunning TaskStatus = "RUNNING"

	// TaskStatusSucceeded — action завершился, выходы отмечены.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusFailed — action или отметка выходов завершились ошибкой.
	TaskStatusFailed TaskStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSkipped, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsComplete возвращает true, если выходы задачи существуют.
func (s TaskStatus) IsComplete() bool {
	return s == TaskStatusSkipped || s == TaskStatusSucceeded
}
