package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListBestWorkers(ctx context.Context, limit int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, email string, name, photoURL, bio *string, skills []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserEconomy interface {
	RefundBuyer(ctx context.Context, buyerEmail string, amount int) (int64, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role string) (*models.User, error)
}

type UserHandler struct {
	Users   UserStore
	Economy UserEconomy
	Logger  *slog.Logger
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromCtx(r.Context()))
}

// Role handles GET /api/v1/users/role: the lightweight role+coins probe the
// client polls after login.
func (h *UserHandler) Role(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"role": u.Role, "coins": u.Coins})
}

type updateProfileRequest struct {
	Name     *string  `json:"name"`
	PhotoURL *string  `json:"photo_url"`
	Bio      *string  `json:"bio"`
	Skills   []string `json:"skills"`
}

// UpdateProfile handles PATCH /api/v1/users/me. Absent fields are left as
// they are.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.Users.UpdateProfile(r.Context(), u.Email, req.Name, req.PhotoURL, req.Bio, req.Skills); err != nil {
		h.Logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type refundRequest struct {
	Amount int    `json:"amount"`
	Email  string `json:"email"`
}

type refundResponse struct {
	RemovedSubmissions int64 `json:"removed_submissions"`
}

// Refund handles POST /api/v1/users/refund (buyer, self-service).
func (h *UserHandler) Refund(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	removed, err := h.Economy.RefundBuyer(r.Context(), u.Email, req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, "refund buyer", err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{RemovedSubmissions: removed})
}

// AdminRefund handles POST /api/v1/admin/refund: the same operation applied
// to any buyer by email.
func (h *UserHandler) AdminRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	removed, err := h.Economy.RefundBuyer(r.Context(), req.Email, req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, "admin refund", err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{RemovedSubmissions: removed})
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// AssignRole handles PATCH /api/v1/admin/users/{id}/role (admin only).
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := h.Economy.AssignRole(r.Context(), id, req.Role)
	if err != nil {
		writeServiceError(w, h.Logger, "assign role", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /api/v1/admin/users (admin only).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.Logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Delete handles DELETE /api/v1/admin/users/{id} (admin only). Submissions
// and withdrawals referencing the user are intentionally left behind.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.Users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Logger.Error("delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BestWorkers handles GET /api/v1/users/best-workers: the top earners shown
// on the landing page. Public, no auth.
func (h *UserHandler) BestWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Users.ListBestWorkers(r.Context(), 6)
	if err != nil {
		h.Logger.Error("list best workers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if workers == nil {
		workers = []*models.User{}
	}
	writeJSON(w, http.StatusOK, workers)
}
