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

// SubmissionEconomy is the slice of the economy service the handler calls.
type SubmissionEconomy interface {
	SubmitWork(ctx context.Context, taskID uuid.UUID, workerEmail, workerName, details string) (*models.Submission, error)
	ApproveSubmission(ctx context.Context, submissionID uuid.UUID, caller *models.User) (*models.Submission, error)
	RejectSubmission(ctx context.Context, submissionID uuid.UUID, caller *models.User) (*models.Submission, error)
}

// SubmissionStore covers the read-only listings.
type SubmissionStore interface {
	ListByWorker(ctx context.Context, workerEmail, status string, limit, offset int) ([]*models.Submission, int, error)
	ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error)
}

type SubmissionHandler struct {
	Economy     SubmissionEconomy
	Submissions SubmissionStore
	Logger      *slog.Logger
}

type submitWorkRequest struct {
	TaskID  string `json:"task_id"`
	Details string `json:"submission_details"`
}

// Submit handles POST /api/v1/submissions (worker only).
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req submitWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task_id")
		return
	}

	sub, err := h.Economy.SubmitWork(r.Context(), taskID, u.Email, u.Name, req.Details)
	if err != nil {
		writeServiceError(w, h.Logger, "submit work", err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Approve handles PATCH /api/v1/submissions/{id}/approve (buyer or admin).
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Economy.ApproveSubmission, "approve submission")
}

// Reject handles PATCH /api/v1/submissions/{id}/reject (buyer or admin).
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Economy.RejectSubmission, "reject submission")
}

func (h *SubmissionHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, uuid.UUID, *models.User) (*models.Submission, error),
	name string,
) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	sub, err := op(r.Context(), id, middleware.UserFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, h.Logger, name, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type submissionListResponse struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int                  `json:"total"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}

// ListMine handles GET /api/v1/submissions/my (worker). ?status=approved
// narrows to one status.
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	page, limit, offset := pagination(r, 10)

	status := r.URL.Query().Get("status")
	if status != "" && status != models.SubmissionStatusPending &&
		status != models.SubmissionStatusApproved && status != models.SubmissionStatusRejected {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	subs, total, err := h.Submissions.ListByWorker(r.Context(), u.Email, status, limit, offset)
	if err != nil {
		h.Logger.Error("list worker submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	writeJSON(w, http.StatusOK, submissionListResponse{
		Submissions: subs,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	})
}

// ListPending handles GET /api/v1/submissions/pending (buyer): submissions
// awaiting the caller's review.
func (h *SubmissionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	subs, err := h.Submissions.ListPendingByBuyer(r.Context(), u.Email)
	if err != nil {
		h.Logger.Error("list pending submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}
