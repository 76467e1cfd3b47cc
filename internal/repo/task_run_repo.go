package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/eggo/internal/domain"
)

// TaskRunRepo — репозиторий для работы с task runs.
type TaskRunRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRunRepo создаёт новый TaskRunRepo.
func NewTaskRunRepo(pool *pgxpool.Pool) *TaskRunRepo {
	return &TaskRunRepo{pool: pool}
}

// Record сохраняет состояние задачи. Одна запись на (run_id, task_id):
// повторные события обновляют статус, время и ошибку.
func (r *TaskRunRepo) Record(ctx context.Context, tr *domain.TaskRun) error {
	query := `
		INSERT INTO task_runs (id, run_id, task_id, status, started_at, finished_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, task_id) DO UPDATE
		SET status      = EXCLUDED.status,
		    started_at  = COALESCE(EXCLUDED.started_at, task_runs.started_at),
		    finished_at = EXCLUDED.finished_at,
		    error       = EXCLUDED.error
	`
	_, err := r.pool.Exec(ctx, query,
		tr.ID,
		tr.RunID,
		tr.TaskID,
		tr.Status,
		tr.StartedAt,
		tr.FinishedAt,
		nullString(tr.Error),
		tr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return nil
}

// ListByRunID возвращает задачи run в порядке первого события.
func (r *TaskRunRepo) ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.TaskRun, error) {
	query := `
		SELECT id, run_id, task_id, status, started_at, finished_at, error, created_at
		FROM task_runs
		WHERE run_id = $1
		ORDER BY created_at ASC, task_id ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list task runs by run_id: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskRun
	for rows.Next() {
		var tr domain.TaskRun
		var trError *string
		if err := rows.Scan(
			&tr.ID,
			&tr.RunID,
			&tr.TaskID,
			&tr.Status,
			&tr.StartedAt,
			&tr.FinishedAt,
			&trError,
			&tr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task run: %w", err)
		}
		if trError != nil {
			tr.Error = *trError
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}
