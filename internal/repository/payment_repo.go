package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// CreateTx inserts a payment record inside the given transaction, paired
// with the coin credit it records.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO payments (id, email, coins, amount_cents, transaction_id, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING paid_at
	`, p.ID, p.Email, p.Coins, p.AmountCents, p.TransactionID, p.PaymentMethod).Scan(&p.PaidAt)
}

func (r *PaymentRepo) ListByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, coins, amount_cents, transaction_id, payment_method, paid_at
		FROM payments WHERE email = $1 ORDER BY paid_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Email, &p.Coins, &p.AmountCents, &p.TransactionID, &p.PaymentMethod, &p.PaidAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

func (r *PaymentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM payments`).Scan(&n)
	return n, err
}

// Coin packages are the purchasable bundles shown on the pay page.

func (r *PaymentRepo) ListCoinPackages(ctx context.Context) ([]*models.CoinPackage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, coins, price_cents, created_at FROM coin_packages ORDER BY price_cents ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CoinPackage
	for rows.Next() {
		var c models.CoinPackage
		if err := rows.Scan(&c.ID, &c.Coins, &c.PriceCents, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *PaymentRepo) GetCoinPackage(ctx context.Context, id uuid.UUID) (*models.CoinPackage, error) {
	var c models.CoinPackage
	err := r.pool.QueryRow(ctx, `
		SELECT id, coins, price_cents, created_at FROM coin_packages WHERE id = $1
	`, id).Scan(&c.ID, &c.Coins, &c.PriceCents, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PaymentRepo) CreateCoinPackage(ctx context.Context, c *models.CoinPackage) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO coin_packages (id, coins, price_cents) VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, c.Coins, c.PriceCents).Scan(&c.CreatedAt)
}
