package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal lifecycle. No rejection path exists for withdrawals.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
)

// MinWithdrawalCoins is the floor for a cash-out request (200 coins = $10).
const MinWithdrawalCoins = 200

// CoinsPerDollar is the fixed exchange rate applied at withdrawal approval.
const CoinsPerDollar = 20

type Withdrawal struct {
	ID               uuid.UUID `json:"id"`
	WorkerEmail      string    `json:"worker_email"`
	WorkerName       string    `json:"worker_name"`
	WithdrawalCoins  int       `json:"withdrawal_coin"`
	WithdrawalAmount float64   `json:"withdrawal_amount"`
	PaymentSystem    string    `json:"payment_system"`
	AccountNumber    string    `json:"account_number"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"withdraw_date"`
}
