package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — запись об одном проходе разрешения графа.
//
// Run создаётся когда:
// - Пользователь запускает pipeline через CLI
// - Scheduler повторно вызывает проход по расписанию
//
// Повторный запуск того же pipeline — это новый Run; уже готовые
// выходы пропускаются, поэтому несколько Runs сходятся к одному результату.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Dataset — имя датасета из конфигурации.
	Dataset string `json:"dataset"`

	// Pipeline — имя top-level pipeline (vcf2adam, bam2adam).
	Pipeline string `json:"pipeline"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Executed — количество задач, action которых был вызван.
	Executed int `json:"executed"`

	// Skipped — количество задач, пропущенных по существующим выходам.
	Skipped int `json:"skipped"`

	// StartedAt — время начала прохода.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки первой упавшей задачи.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе RUNNING.
func NewRun(dataset, pipeline string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.New(),
		Dataset:   dataset,
		Pipeline:  pipeline,
		Status:    RunStatusRunning,
		StartedAt: &now,
		CreatedAt: now,
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}
