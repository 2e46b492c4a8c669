package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

// TaskStore is the subset of the task repository needed by the handler.
type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*models.Task, error)
	CountOpen(ctx context.Context) (int, error)
	ListTrending(ctx context.Context, limit int) ([]*models.Task, error)
	ListByCreator(ctx context.Context, email string) ([]*models.Task, error)
	ListAll(ctx context.Context) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskHandler serves the task CRUD endpoints. Task creation reserves no
// coins; buyers pre-fund via coin purchase and the reserved budget on the
// task row is informational.
type TaskHandler struct {
	Tasks  TaskStore
	Logger *slog.Logger
}

type createTaskRequest struct {
	Title           string    `json:"task_title"`
	Detail          string    `json:"task_detail"`
	RequiredWorkers int       `json:"required_workers"`
	PayableAmount   int       `json:"payable_amount"`
	CompletionDate  time.Time `json:"completion_date"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        string    `json:"task_image_url"`
}

// Create handles POST /api/v1/tasks (buyer only).
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "task_title is required")
		return
	}
	if req.RequiredWorkers <= 0 {
		writeError(w, http.StatusBadRequest, "required_workers must be > 0")
		return
	}
	if req.PayableAmount <= 0 {
		writeError(w, http.StatusBadRequest, "payable_amount must be > 0")
		return
	}
	if req.CompletionDate.IsZero() {
		writeError(w, http.StatusBadRequest, "completion_date is required")
		return
	}

	task := &models.Task{
		ID:              uuid.New(),
		CreatedBy:       u.Email,
		Title:           req.Title,
		Detail:          req.Detail,
		RequiredWorkers: req.RequiredWorkers,
		PayableAmount:   req.PayableAmount,
		TotalPayable:    req.RequiredWorkers * req.PayableAmount,
		CompletionDate:  req.CompletionDate,
		SubmissionInfo:  req.SubmissionInfo,
		ImageURL:        req.ImageURL,
	}
	if err := h.Tasks.Create(r.Context(), task); err != nil {
		h.Logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type taskListResponse struct {
	Tasks       []*models.Task `json:"tasks"`
	TotalTasks  int            `json:"totalTasks"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

// ListOpen handles GET /api/v1/tasks: paginated open tasks, nearest
// deadline first.
func (h *TaskHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r, 10)

	tasks, err := h.Tasks.ListOpen(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("list open tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	total, err := h.Tasks.CountOpen(r.Context())
	if err != nil {
		h.Logger.Error("count open tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, taskListResponse{
		Tasks:       tasks,
		TotalTasks:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	})
}

// Trending handles GET /api/v1/tasks/trending: the best-paying open tasks.
func (h *TaskHandler) Trending(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListTrending(r.Context(), 6)
	if err != nil {
		h.Logger.Error("list trending tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListMine handles GET /api/v1/tasks/my (buyer): the caller's own tasks.
func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	tasks, err := h.Tasks.ListByCreator(r.Context(), u.Email)
	if err != nil {
		h.Logger.Error("list tasks by creator", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListAll handles GET /api/v1/admin/tasks.
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListAll(r.Context())
	if err != nil {
		h.Logger.Error("list all tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type updateTaskRequest struct {
	Title          *string    `json:"task_title"`
	Detail         *string    `json:"task_detail"`
	SubmissionInfo *string    `json:"submission_info"`
	CompletionDate *time.Time `json:"completion_date"`
	ImageURL       *string    `json:"task_image_url"`
}

// Update handles PATCH /api/v1/tasks/{id} (creator or admin). Worker count
// and pay rate are frozen after creation; only descriptive fields change.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Detail != nil {
		task.Detail = *req.Detail
	}
	if req.SubmissionInfo != nil {
		task.SubmissionInfo = *req.SubmissionInfo
	}
	if req.CompletionDate != nil {
		task.CompletionDate = *req.CompletionDate
	}
	if req.ImageURL != nil {
		task.ImageURL = *req.ImageURL
	}

	if err := h.Tasks.Update(r.Context(), task); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/v1/tasks/{id} (creator or admin).
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}
	if err := h.Tasks.Delete(r.Context(), task.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadOwnedTask fetches the task and enforces creator-or-admin access.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return nil, false
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	u := middleware.UserFromCtx(r.Context())
	if u.Role != models.RoleAdmin && u.Email != task.CreatedBy {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return task, true
}
