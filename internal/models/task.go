package models

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID              uuid.UUID `json:"id"`
	CreatedBy       string    `json:"created_by"`
	Title           string    `json:"task_title"`
	Detail          string    `json:"task_detail,omitempty"`
	RequiredWorkers int       `json:"required_workers"`
	PayableAmount   int       `json:"payable_amount"`
	TotalPayable    int       `json:"total_payable"`
	CompletionDate  time.Time `json:"completion_date"`
	SubmissionInfo  string    `json:"submission_info,omitempty"`
	ImageURL        string    `json:"task_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
