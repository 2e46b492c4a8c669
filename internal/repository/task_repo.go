package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

const taskColumns = `id, created_by, title, detail, required_workers, payable_amount, total_payable, completion_date, submission_info, image_url, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.CreatedBy, &t.Title, &t.Detail, &t.RequiredWorkers, &t.PayableAmount, &t.TotalPayable, &t.CompletionDate, &t.SubmissionInfo, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, created_by, title, detail, required_workers, payable_amount, total_payable, completion_date, submission_info, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, t.ID, t.CreatedBy, t.Title, t.Detail, t.RequiredWorkers, t.PayableAmount, t.TotalPayable, t.CompletionDate, t.SubmissionInfo, t.ImageURL).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// ListOpen returns tasks with remaining capacity, nearest completion date
// first. limit/offset implement pagination; CountOpen supplies the total.
func (r *TaskRepo) ListOpen(ctx context.Context, limit, offset int) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE required_workers > 0
		ORDER BY completion_date ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE required_workers > 0`).Scan(&n)
	return n, err
}

// ListTrending returns the best-paying open tasks for the landing page.
func (r *TaskRepo) ListTrending(ctx context.Context, limit int) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE required_workers > 0
		ORDER BY payable_amount DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) ListByCreator(ctx context.Context, email string) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE created_by = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepo) ListAll(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, detail = $3, submission_info = $4, completion_date = $5, image_url = $6, updated_at = now()
		WHERE id = $1
	`, t.ID, t.Title, t.Detail, t.SubmissionInfo, t.CompletionDate, t.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ClaimSlotTx decrements required_workers if a slot remains and returns the
// updated task. pgx.ErrNoRows means no slot was available (or no such task).
func (r *TaskRepo) ClaimSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = required_workers - 1, updated_at = now()
		WHERE id = $1 AND required_workers > 0
		RETURNING `+taskColumns+`
	`, id))
}

// ReleaseSlotTx returns one slot to the task after a rejection.
func (r *TaskRepo) ReleaseSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET required_workers = required_workers + 1, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
