package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

const withdrawalColumns = `id, worker_email, worker_name, withdrawal_coin, withdrawal_amount, payment_system, account_number, status, created_at`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.WorkerEmail, &w.WorkerName, &w.WithdrawalCoins, &w.WithdrawalAmount, &w.PaymentSystem, &w.AccountNumber, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateTx inserts a withdrawal request inside the given transaction so the
// admin notification enqueue shares its fate.
func (r *WithdrawalRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, worker_email, worker_name, withdrawal_coin, withdrawal_amount, payment_system, account_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, w.ID, w.WorkerEmail, w.WorkerName, w.WithdrawalCoins, w.WithdrawalAmount, w.PaymentSystem, w.AccountNumber, w.Status).
		Scan(&w.CreatedAt)
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

func (r *WithdrawalRepo) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE status = $1 ORDER BY created_at DESC
	`, models.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// MarkApprovedTx flips a pending withdrawal to approved and returns it.
// pgx.ErrNoRows means no pending row matched, so an already-approved
// request can never be applied twice.
func (r *WithdrawalRepo) MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING `+withdrawalColumns+`
	`, id, models.WithdrawalStatusApproved, models.WithdrawalStatusPending))
}
