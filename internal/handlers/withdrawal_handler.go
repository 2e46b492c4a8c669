package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

type WithdrawalEconomy interface {
	RequestWithdrawal(ctx context.Context, worker *models.User, coins int, paymentSystem, accountNumber string) (*models.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
}

type WithdrawalStore interface {
	ListPending(ctx context.Context) ([]*models.Withdrawal, error)
}

type WithdrawalHandler struct {
	Economy     WithdrawalEconomy
	Withdrawals WithdrawalStore
	Logger      *slog.Logger
}

type createWithdrawalRequest struct {
	WithdrawalCoins int    `json:"withdrawal_coin"`
	PaymentSystem   string `json:"payment_system"`
	AccountNumber   string `json:"account_number"`
}

// Create handles POST /api/v1/withdrawals (worker only).
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PaymentSystem == "" || req.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "payment_system and account_number are required")
		return
	}

	wd, err := h.Economy.RequestWithdrawal(r.Context(), u, req.WithdrawalCoins, req.PaymentSystem, req.AccountNumber)
	if err != nil {
		writeServiceError(w, h.Logger, "request withdrawal", err)
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

// ListPending handles GET /api/v1/admin/withdrawals (admin only).
func (h *WithdrawalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.Withdrawals.ListPending(r.Context())
	if err != nil {
		h.Logger.Error("list pending withdrawals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*models.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Approve handles PATCH /api/v1/admin/withdrawals/{id}/approve (admin only).
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}
	wd, err := h.Economy.ApproveWithdrawal(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "approve withdrawal", err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}
