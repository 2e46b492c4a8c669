package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
)

// Stats is implemented by Repo; an interface so handler tests can stub it.
type Stats interface {
	BuyerStats(ctx context.Context, buyerEmail string) (*BuyerStats, error)
	WorkerStats(ctx context.Context, workerEmail string) (*WorkerStats, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
}

type Handler struct {
	stats Stats
	log   *slog.Logger
}

func NewHandler(stats Stats, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{stats: stats, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/dashboard/buyer
func (h *Handler) Buyer(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	s, err := h.stats.BuyerStats(r.Context(), u.Email)
	if err != nil {
		h.log.Error("buyer stats", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /api/v1/dashboard/worker
func (h *Handler) Worker(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	s, err := h.stats.WorkerStats(r.Context(), u.Email)
	if err != nil {
		h.log.Error("worker stats", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /api/v1/dashboard/admin
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.AdminStats(r.Context())
	if err != nil {
		h.log.Error("admin stats", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
