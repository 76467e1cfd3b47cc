package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskRun — исполнение одной задачи графа внутри run.
//
// TaskID — естественный ключ задачи (тип + параметры конструктора),
// поэтому одна и та же задача в разных runs имеет одинаковый TaskID.
type TaskRun struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// TaskID — идентичность задачи, например "ADAMBasic(command=vcf2adam,dataset=demo)".
	TaskID string `json:"task_id"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// StartedAt — время начала выполнения action.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
func (t *TaskRun) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если task run завершён.
func (t *TaskRun) IsFinished() bool {
	return t.Status.IsTerminal()
}
