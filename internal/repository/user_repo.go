package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

const userColumns = `id, email, name, photo_url, bio, skills, role, coins, earnings, granted_roles, password_hash, created_at, last_login_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Bio, &u.Skills, &u.Role, &u.Coins, &u.Earnings, &u.GrantedRoles, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, photo_url, bio, skills, role, coins, earnings, granted_roles, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, last_login_at, updated_at
	`, u.ID, u.Email, u.Name, u.PhotoURL, u.Bio, u.Skills, u.Role, u.Coins, u.Earnings, u.GrantedRoles, u.PasswordHash).
		Scan(&u.CreatedAt, &u.LastLoginAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListBestWorkers returns workers ordered by lifetime earnings, highest first.
func (r *UserRepo) ListBestWorkers(ctx context.Context, limit int) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY earnings DESC LIMIT $2
	`, models.RoleWorker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	var list []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, email string, name, photoURL, bio *string, skills []string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			photo_url = COALESCE($3, photo_url),
			bio = COALESCE($4, bio),
			skills = COALESCE($5, skills),
			updated_at = now()
		WHERE email = $1
	`, email, name, photoURL, bio, skills)
	return err
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE email = $1`, email)
	return err
}

// Delete removes a user by id. Submissions and withdrawals referencing the
// user are left in place.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetByIDForUpdate locks the user row. Call within a transaction.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// CreditCoinsTx adds amount to the user's coin balance and returns the new
// balance. Call within a transaction.
func (r *UserRepo) CreditCoinsTx(ctx context.Context, tx pgx.Tx, email string, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET coins = coins + $1, updated_at = now()
		WHERE email = $2
		RETURNING coins
	`, amount, email).Scan(&newBalance)
	return newBalance, err
}

// DebitCoinsForWithdrawalTx atomically deducts coins and accrues earnings in
// one statement, guarded by coins >= amount. pgx.ErrNoRows means the guard
// failed or the user does not exist.
func (r *UserRepo) DebitCoinsForWithdrawalTx(ctx context.Context, tx pgx.Tx, email string, coins int, earningsDelta float64) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET coins = coins - $1, earnings = earnings + $2, updated_at = now()
		WHERE email = $3 AND coins >= $1
		RETURNING coins
	`, coins, earningsDelta, email).Scan(&newBalance)
	return newBalance, err
}

// SetRoleTx sets the role. When grantBaseline is true the coin balance is
// reset to baselineCoins and the role is recorded in granted_roles so the
// grant is never repeated.
func (r *UserRepo) SetRoleTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, role string, baselineCoins int, grantBaseline bool) error {
	if grantBaseline {
		_, err := tx.Exec(ctx, `
			UPDATE users SET role = $2, coins = $3, granted_roles = array_append(granted_roles, $2), updated_at = now()
			WHERE id = $1
		`, id, role, baselineCoins)
		return err
	}
	_, err := tx.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	return err
}
