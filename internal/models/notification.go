package models

import (
	"time"

	"github.com/google/uuid"
)

// Dashboard routes a notification links the recipient to.
const (
	ActionRouteBuyerHome  = "/dashboard/buyer-home"
	ActionRouteWorkerHome = "/dashboard/worker-home"
	ActionRouteAdminHome  = "/dashboard/admin-home"
)

// Notification is append-only; only the read flag is ever mutated.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	ToEmail     string    `json:"to_email"`
	Message     string    `json:"message"`
	ActionRoute string    `json:"action_route"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"time"`
}
