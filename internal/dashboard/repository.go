// Package dashboard serves the per-role home page aggregates. Everything
// here is read-only; the numbers are derived with SQL aggregates rather
// than maintained counters.
package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type BuyerStats struct {
	TaskCount           int `json:"task_count"`
	OpenSlots           int `json:"open_slots"`
	TotalBudget         int `json:"total_budget"`
	PendingSubmissions  int `json:"pending_submissions"`
	ApprovedSubmissions int `json:"approved_submissions"`
	RejectedSubmissions int `json:"rejected_submissions"`
	ApprovedPayout      int `json:"approved_payout"`
}

func (r *Repo) BuyerStats(ctx context.Context, buyerEmail string) (*BuyerStats, error) {
	var s BuyerStats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(required_workers), 0), COALESCE(sum(total_payable), 0)
		FROM tasks WHERE created_by = $1
	`, buyerEmail).Scan(&s.TaskCount, &s.OpenSlots, &s.TotalBudget)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = $2),
			count(*) FILTER (WHERE status = $3),
			count(*) FILTER (WHERE status = $4),
			COALESCE(sum(payable_amount) FILTER (WHERE status = $3), 0)
		FROM task_submissions WHERE buyer_email = $1
	`, buyerEmail, models.SubmissionStatusPending, models.SubmissionStatusApproved, models.SubmissionStatusRejected).
		Scan(&s.PendingSubmissions, &s.ApprovedSubmissions, &s.RejectedSubmissions, &s.ApprovedPayout)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type WorkerStats struct {
	TotalSubmissions    int `json:"total_submissions"`
	PendingSubmissions  int `json:"pending_submissions"`
	ApprovedSubmissions int `json:"approved_submissions"`
	RejectedSubmissions int `json:"rejected_submissions"`
	TotalEarnedCoins    int `json:"total_earned_coins"`
}

func (r *Repo) WorkerStats(ctx context.Context, workerEmail string) (*WorkerStats, error) {
	var s WorkerStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = $2),
			count(*) FILTER (WHERE status = $3),
			count(*) FILTER (WHERE status = $4),
			COALESCE(sum(payable_amount) FILTER (WHERE status = $3), 0)
		FROM task_submissions WHERE worker_email = $1
	`, workerEmail, models.SubmissionStatusPending, models.SubmissionStatusApproved, models.SubmissionStatusRejected).
		Scan(&s.TotalSubmissions, &s.PendingSubmissions, &s.ApprovedSubmissions, &s.RejectedSubmissions, &s.TotalEarnedCoins)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type AdminStats struct {
	TotalWorkers        int `json:"totalWorkers"`
	TotalBuyers         int `json:"totalBuyers"`
	TotalAvailableCoins int `json:"totalAvailableCoins"`
	TotalPayments       int `json:"totalPayments"`
	PendingWithdrawals  int `json:"pendingWithdrawals"`
}

func (r *Repo) AdminStats(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE role = $1),
			count(*) FILTER (WHERE role = $2),
			COALESCE(sum(coins), 0)
		FROM users
	`, models.RoleWorker, models.RoleBuyer).Scan(&s.TotalWorkers, &s.TotalBuyers, &s.TotalAvailableCoins)
	if err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&s.TotalPayments); err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM withdrawals WHERE status = $1
	`, models.WithdrawalStatusPending).Scan(&s.PendingWithdrawals)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
