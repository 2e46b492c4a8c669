package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission lifecycle. pending is the only non-terminal state.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// Submission is a worker's completed work against one task slot. Buyer and
// task fields are denormalized from the task at creation time so approval
// and rejection never depend on the task row still existing.
type Submission struct {
	ID            uuid.UUID `json:"id"`
	TaskID        uuid.UUID `json:"task_id"`
	TaskTitle     string    `json:"task_title"`
	PayableAmount int       `json:"payable_amount"`
	WorkerEmail   string    `json:"worker_email"`
	WorkerName    string    `json:"worker_name"`
	BuyerEmail    string    `json:"buyer_email"`
	BuyerName     string    `json:"buyer_name"`
	Details       string    `json:"submission_details,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
