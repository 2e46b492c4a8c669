package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

// NotificationJobArgs is the payload of a deliver_notification job. The
// economy service enqueues it inside the same transaction as the coin
// mutation it announces, so a committed mutation always has exactly one
// delivery job and a rolled-back one has none. NotificationID is assigned
// at enqueue time; the store deduplicates on it, which makes redelivery
// after a worker crash harmless.
type NotificationJobArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
	ToEmail        string    `json:"to_email"`
	Message        string    `json:"message"`
	ActionRoute    string    `json:"action_route"`
}

func (NotificationJobArgs) Kind() string { return "deliver_notification" }

// NotificationStore is the contract the delivery worker needs.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type DeliverWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
	store NotificationStore
	log   *slog.Logger
}

func NewDeliverWorker(store NotificationStore, log *slog.Logger) *DeliverWorker {
	if log == nil {
		log = slog.Default()
	}
	return &DeliverWorker{store: store, log: log}
}

func (w *DeliverWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	args := job.Args
	err := w.store.Create(ctx, &models.Notification{
		ID:          args.NotificationID,
		ToEmail:     args.ToEmail,
		Message:     args.Message,
		ActionRoute: args.ActionRoute,
	})
	if err != nil {
		// Returning the error lets River retry; the economic mutation
		// this notification announces already committed and stays put.
		return fmt.Errorf("deliver notification %s: %w", args.NotificationID, err)
	}
	w.log.Info("notification delivered", "to", args.ToEmail, "notification_id", args.NotificationID)
	return nil
}
