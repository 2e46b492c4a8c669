package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the application tables if they do not exist yet.
// River manages its own tables through rivermigrate.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			photo_url TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			skills TEXT[] NOT NULL DEFAULT '{}',
			role TEXT NOT NULL CHECK (role IN ('admin', 'buyer', 'worker')),
			coins INTEGER NOT NULL DEFAULT 0 CHECK (coins >= 0),
			earnings DOUBLE PRECISION NOT NULL DEFAULT 0,
			granted_roles TEXT[] NOT NULL DEFAULT '{}',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_login_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			created_by TEXT NOT NULL,
			title TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			required_workers INTEGER NOT NULL CHECK (required_workers >= 0),
			payable_amount INTEGER NOT NULL CHECK (payable_amount > 0),
			total_payable INTEGER NOT NULL,
			completion_date TIMESTAMPTZ NOT NULL,
			submission_info TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS tasks_open_idx ON tasks (completion_date) WHERE required_workers > 0;
		CREATE INDEX IF NOT EXISTS tasks_created_by_idx ON tasks (created_by);

		CREATE TABLE IF NOT EXISTS task_submissions (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL,
			task_title TEXT NOT NULL,
			payable_amount INTEGER NOT NULL,
			worker_email TEXT NOT NULL,
			worker_name TEXT NOT NULL,
			buyer_email TEXT NOT NULL,
			buyer_name TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS task_submissions_worker_idx ON task_submissions (worker_email, created_at DESC);
		CREATE INDEX IF NOT EXISTS task_submissions_buyer_pending_idx ON task_submissions (buyer_email) WHERE status = 'pending';

		CREATE TABLE IF NOT EXISTS withdrawals (
			id UUID PRIMARY KEY,
			worker_email TEXT NOT NULL,
			worker_name TEXT NOT NULL,
			withdrawal_coin INTEGER NOT NULL CHECK (withdrawal_coin >= 200),
			withdrawal_amount DOUBLE PRECISION NOT NULL,
			payment_system TEXT NOT NULL,
			account_number TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'approved')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS withdrawals_pending_idx ON withdrawals (created_at DESC) WHERE status = 'pending';

		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			to_email TEXT NOT NULL,
			message TEXT NOT NULL,
			action_route TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (to_email, created_at DESC);

		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			coins INTEGER NOT NULL CHECK (coins > 0),
			amount_cents BIGINT NOT NULL,
			transaction_id TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT 'card',
			paid_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS payments_email_idx ON payments (email, paid_at DESC);

		CREATE TABLE IF NOT EXISTS coin_packages (
			id UUID PRIMARY KEY,
			coins INTEGER NOT NULL CHECK (coins > 0),
			price_cents BIGINT NOT NULL CHECK (price_cents > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}
