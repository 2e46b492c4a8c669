package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

const submissionColumns = `id, task_id, task_title, payable_amount, worker_email, worker_name, buyer_email, buyer_name, details, status, created_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail, &s.WorkerName, &s.BuyerEmail, &s.BuyerName, &s.Details, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts a submission inside the given transaction, paired with
// the task slot claim.
func (r *SubmissionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	return tx.QueryRow(ctx, `
		INSERT INTO task_submissions (id, task_id, task_title, payable_amount, worker_email, worker_name, buyer_email, buyer_name, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, s.ID, s.TaskID, s.TaskTitle, s.PayableAmount, s.WorkerEmail, s.WorkerName, s.BuyerEmail, s.BuyerName, s.Details, s.Status).
		Scan(&s.CreatedAt)
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM task_submissions WHERE id = $1`, id))
}

// ListByWorker returns a worker's submissions newest first. status filters
// when non-empty. The second return is the unpaginated total for the filter.
func (r *SubmissionRepo) ListByWorker(ctx context.Context, workerEmail, status string, limit, offset int) ([]*models.Submission, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM task_submissions
		WHERE worker_email = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, workerEmail, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM task_submissions WHERE worker_email = $1 AND ($2 = '' OR status = $2)
	`, workerEmail, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *SubmissionRepo) ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM task_submissions
		WHERE buyer_email = $1 AND status = $2
		ORDER BY created_at DESC
	`, buyerEmail, models.SubmissionStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func collectSubmissions(rows pgx.Rows) ([]*models.Submission, error) {
	var list []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// MarkApprovedTx flips a pending submission to approved and returns it.
// The status check lives inside the UPDATE so a terminal submission can
// never transition again; pgx.ErrNoRows means there was no pending row.
func (r *SubmissionRepo) MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(tx.QueryRow(ctx, `
		UPDATE task_submissions SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING `+submissionColumns+`
	`, id, models.SubmissionStatusApproved, models.SubmissionStatusPending))
}

// MarkRejectedTx is the rejection counterpart of MarkApprovedTx.
func (r *SubmissionRepo) MarkRejectedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(tx.QueryRow(ctx, `
		UPDATE task_submissions SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING `+submissionColumns+`
	`, id, models.SubmissionStatusRejected, models.SubmissionStatusPending))
}

// DeletePendingByBuyerTx removes all of a buyer's pending submissions and
// reports how many were deleted.
func (r *SubmissionRepo) DeletePendingByBuyerTx(ctx context.Context, tx pgx.Tx, buyerEmail string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		DELETE FROM task_submissions WHERE buyer_email = $1 AND status = $2
	`, buyerEmail, models.SubmissionStatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
