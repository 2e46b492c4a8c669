package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

// ---------------------------------------------------------------------------
// Mock task store
// ---------------------------------------------------------------------------

type mockTaskStore struct {
	tasks map[uuid.UUID]*models.Task
}

func newMockTaskStore(tasks ...*models.Task) *mockTaskStore {
	m := &mockTaskStore{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range tasks {
		cp := *t
		m.tasks[t.ID] = &cp
	}
	return m
}

func (m *mockTaskStore) Create(_ context.Context, t *models.Task) error {
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskStore) open() []*models.Task {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.RequiredWorkers > 0 {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockTaskStore) ListOpen(_ context.Context, limit, offset int) ([]*models.Task, error) {
	list := m.open()
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (m *mockTaskStore) CountOpen(_ context.Context) (int, error) { return len(m.open()), nil }

func (m *mockTaskStore) ListTrending(_ context.Context, limit int) ([]*models.Task, error) {
	list := m.open()
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockTaskStore) ListByCreator(_ context.Context, email string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.CreatedBy == email {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTaskStore) ListAll(_ context.Context) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockTaskStore) Update(_ context.Context, t *models.Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func authedRequest(method, target string, body interface{}, u *models.User) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if u != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), u))
	}
	return req
}

func testBuyer() *models.User {
	return &models.User{ID: uuid.New(), Email: "b@x.com", Name: "Buyer", Role: models.RoleBuyer, Coins: 100}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTaskCreate(t *testing.T) {
	store := newMockTaskStore()
	h := &TaskHandler{Tasks: store, Logger: slog.Default()}
	b := testBuyer()

	req := authedRequest(http.MethodPost, "/api/v1/tasks", createTaskRequest{
		Title:           "Label 50 images",
		Detail:          "bounding boxes only",
		RequiredWorkers: 4,
		PayableAmount:   5,
		CompletionDate:  time.Now().Add(72 * time.Hour),
	}, b)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CreatedBy != b.Email {
		t.Errorf("created_by: got %q, want %q", got.CreatedBy, b.Email)
	}
	if got.TotalPayable != 20 {
		t.Errorf("total_payable: got %d, want 20 (4x5)", got.TotalPayable)
	}
	if len(store.tasks) != 1 {
		t.Errorf("stored tasks: got %d, want 1", len(store.tasks))
	}
}

func TestTaskCreate_Validation(t *testing.T) {
	h := &TaskHandler{Tasks: newMockTaskStore(), Logger: slog.Default()}
	b := testBuyer()
	deadline := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		body createTaskRequest
	}{
		{"missing title", createTaskRequest{RequiredWorkers: 1, PayableAmount: 1, CompletionDate: deadline}},
		{"zero workers", createTaskRequest{Title: "t", PayableAmount: 1, CompletionDate: deadline}},
		{"zero pay", createTaskRequest{Title: "t", RequiredWorkers: 1, CompletionDate: deadline}},
		{"no deadline", createTaskRequest{Title: "t", RequiredWorkers: 1, PayableAmount: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, authedRequest(http.MethodPost, "/api/v1/tasks", tc.body, b))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTaskListOpen_Pagination(t *testing.T) {
	var tasks []*models.Task
	for i := 0; i < 25; i++ {
		tasks = append(tasks, &models.Task{ID: uuid.New(), CreatedBy: "b@x.com", Title: "t", RequiredWorkers: 1, PayableAmount: 1})
	}
	h := &TaskHandler{Tasks: newMockTaskStore(tasks...), Logger: slog.Default()}

	req := authedRequest(http.MethodGet, "/api/v1/tasks?page=2&limit=10", nil, nil)
	rec := httptest.NewRecorder()
	h.ListOpen(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp taskListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalTasks != 25 || resp.TotalPages != 3 || resp.CurrentPage != 2 {
		t.Errorf("pagination meta: got total=%d pages=%d current=%d, want 25/3/2", resp.TotalTasks, resp.TotalPages, resp.CurrentPage)
	}
	if len(resp.Tasks) != 10 {
		t.Errorf("page size: got %d, want 10", len(resp.Tasks))
	}
}

func TestTaskUpdate_Ownership(t *testing.T) {
	task := &models.Task{ID: uuid.New(), CreatedBy: "b@x.com", Title: "old", RequiredWorkers: 1, PayableAmount: 1}
	store := newMockTaskStore(task)
	h := &TaskHandler{Tasks: store, Logger: slog.Default()}

	newTitle := "new title"
	body := updateTaskRequest{Title: &newTitle}

	// A stranger cannot touch the task.
	stranger := &models.User{ID: uuid.New(), Email: "other@x.com", Role: models.RoleBuyer}
	req := authedRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID.String(), body, stranger)
	req.SetPathValue("id", task.ID.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger update: expected 403, got %d", rec.Code)
	}

	// An admin can.
	admin := &models.User{ID: uuid.New(), Email: "a@x.com", Role: models.RoleAdmin}
	req = authedRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID.String(), body, admin)
	req.SetPathValue("id", task.ID.String())
	rec = httptest.NewRecorder()
	h.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := store.tasks[task.ID].Title; got != newTitle {
		t.Errorf("title after update: got %q, want %q", got, newTitle)
	}
}

func TestTaskDelete(t *testing.T) {
	owner := testBuyer()
	task := &models.Task{ID: uuid.New(), CreatedBy: owner.Email, Title: "t", RequiredWorkers: 1, PayableAmount: 1}
	store := newMockTaskStore(task)
	h := &TaskHandler{Tasks: store, Logger: slog.Default()}

	req := authedRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID.String(), nil, owner)
	req.SetPathValue("id", task.ID.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.tasks) != 0 {
		t.Error("task was not deleted")
	}

	// Deleting again is a 404.
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID.String(), nil, owner)
	req.SetPathValue("id", task.ID.String())
	h.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
