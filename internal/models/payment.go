package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment records a confirmed coin purchase. The coin credit and the record
// insert happen in one transaction (see services.EconomyService).
type Payment struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Coins         int       `json:"coins"`
	AmountCents   int64     `json:"amount_cents"`
	TransactionID string    `json:"transaction_id"`
	PaymentMethod string    `json:"payment_method"`
	PaidAt        time.Time `json:"paid_at"`
}

// CoinPackage is a purchasable coin bundle shown on the pay page.
type CoinPackage struct {
	ID         uuid.UUID `json:"id"`
	Coins      int       `json:"coins"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}
