package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create inserts a notification. Delivery jobs carry a pre-assigned id, so
// a redelivered job is a no-op rather than a duplicate row.
func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, to_email, message, action_route, is_read)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.ToEmail, n.Message, n.ActionRoute, n.IsRead)
	return err
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, email string) ([]*models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, to_email, message, action_route, is_read, created_at
		FROM notifications WHERE to_email = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ToEmail, &n.Message, &n.ActionRoute, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, email string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM notifications WHERE to_email = $1 AND is_read = FALSE
	`, email).Scan(&n)
	return n, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	return err
}
