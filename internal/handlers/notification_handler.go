package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type NotificationStore interface {
	ListByRecipient(ctx context.Context, email string) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, email string) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type NotificationHandler struct {
	Notifications NotificationStore
	Logger        *slog.Logger
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	list, err := h.Notifications.ListByRecipient(r.Context(), u.Email)
	if err != nil {
		h.Logger.Error("list notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	n, err := h.Notifications.UnreadCount(r.Context(), u.Email)
	if err != nil {
		h.Logger.Error("unread count", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// MarkRead handles PATCH /api/v1/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id); err != nil {
		h.Logger.Error("mark notification read", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
