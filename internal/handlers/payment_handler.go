package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
	"github.com/TaFhiM12/EarnSphereX-server/internal/payments"
)

type PaymentStore interface {
	ListByEmail(ctx context.Context, email string) ([]*models.Payment, error)
	ListCoinPackages(ctx context.Context) ([]*models.CoinPackage, error)
	GetCoinPackage(ctx context.Context, id uuid.UUID) (*models.CoinPackage, error)
	CreateCoinPackage(ctx context.Context, c *models.CoinPackage) error
}

type PaymentEconomy interface {
	PurchaseCoins(ctx context.Context, email string, coins int, amountCents int64, transactionID, paymentMethod string) (*models.Payment, error)
}

// PaymentHandler serves the coin purchase flow: list packages, create a
// payment intent, confirm client-side with Stripe, then record the purchase.
type PaymentHandler struct {
	Payments PaymentStore
	Economy  PaymentEconomy
	Intents  payments.IntentCreator
	Logger   *slog.Logger
}

// ListPackages handles GET /api/v1/payments/packages.
func (h *PaymentHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Payments.ListCoinPackages(r.Context())
	if err != nil {
		h.Logger.Error("list coin packages", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if pkgs == nil {
		pkgs = []*models.CoinPackage{}
	}
	writeJSON(w, http.StatusOK, pkgs)
}

// GetPackage handles GET /api/v1/payments/packages/{id}.
func (h *PaymentHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid package id")
		return
	}
	pkg, err := h.Payments.GetCoinPackage(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

type createPackageRequest struct {
	Coins      int   `json:"coins"`
	PriceCents int64 `json:"price_cents"`
}

// CreatePackage handles POST /api/v1/admin/packages (admin only).
func (h *PaymentHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req createPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Coins <= 0 || req.PriceCents <= 0 {
		writeError(w, http.StatusBadRequest, "coins and price_cents must be > 0")
		return
	}
	pkg := &models.CoinPackage{ID: uuid.New(), Coins: req.Coins, PriceCents: req.PriceCents}
	if err := h.Payments.CreateCoinPackage(r.Context(), pkg); err != nil {
		h.Logger.Error("create coin package", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

type createIntentRequest struct {
	PackageID string `json:"package_id"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent handles POST /api/v1/payments/intent (buyer only). The
// amount comes from the stored package, never the client.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	pkgID, err := uuid.Parse(req.PackageID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid package_id")
		return
	}
	pkg, err := h.Payments.GetCoinPackage(r.Context(), pkgID)
	if err != nil {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}

	secret, err := h.Intents.CreateIntent(r.Context(), pkg.PriceCents, u.Email)
	if err != nil {
		h.Logger.Error("create payment intent", "error", err)
		writeError(w, http.StatusBadGateway, "payment processor unavailable")
		return
	}
	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: secret})
}

type purchaseRequest struct {
	PackageID     string `json:"package_id"`
	TransactionID string `json:"transaction_id"`
	PaymentMethod string `json:"payment_method"`
}

// Purchase handles POST /api/v1/payments (buyer only): records a confirmed
// purchase and credits the coins. Coin count and price are re-read from the
// package.
func (h *PaymentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "transaction_id is required")
		return
	}
	pkgID, err := uuid.Parse(req.PackageID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid package_id")
		return
	}
	pkg, err := h.Payments.GetCoinPackage(r.Context(), pkgID)
	if err != nil {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "card"
	}
	p, err := h.Economy.PurchaseCoins(r.Context(), u.Email, pkg.Coins, pkg.PriceCents, req.TransactionID, method)
	if err != nil {
		writeServiceError(w, h.Logger, "purchase coins", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// History handles GET /api/v1/payments (buyer only).
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	list, err := h.Payments.ListByEmail(r.Context(), u.Email)
	if err != nil {
		h.Logger.Error("list payments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, list)
}
