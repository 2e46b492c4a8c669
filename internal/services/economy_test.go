package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
	"github.com/TaFhiM12/EarnSphereX-server/internal/notify"
)

// ---------------------------------------------------------------------------
// In-memory mocks for the economy repo interfaces. These mirror the SQL
// semantics (guarded updates fail with pgx.ErrNoRows) so the real
// EconomyService logic is tested without a database.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- users ---

type mockUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newMockUsers(users ...*models.User) *mockUsers {
	m := &mockUsers{byEmail: make(map[string]*models.User)}
	for _, u := range users {
		cp := *u
		m.byEmail[u.Email] = &cp
	}
	return m
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUsers) CreditCoinsTx(_ context.Context, _ pgx.Tx, email string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	u.Coins += amount
	return u.Coins, nil
}

func (m *mockUsers) DebitCoinsForWithdrawalTx(_ context.Context, _ pgx.Tx, email string, coins int, earningsDelta float64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok || u.Coins < coins {
		return 0, pgx.ErrNoRows
	}
	u.Coins -= coins
	u.Earnings += earningsDelta
	return u.Coins, nil
}

func (m *mockUsers) SetRoleTx(_ context.Context, _ pgx.Tx, id uuid.UUID, role string, baselineCoins int, grantBaseline bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Role = role
			if grantBaseline {
				u.Coins = baselineCoins
				u.GrantedRoles = append(u.GrantedRoles, role)
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockUsers) get(email string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byEmail[email]
}

// --- tasks ---

type mockTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTasks(tasks ...*models.Task) *mockTasks {
	m := &mockTasks{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range tasks {
		cp := *t
		m.tasks[t.ID] = &cp
	}
	return m
}

func (m *mockTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockTasks) ClaimSlotTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.RequiredWorkers <= 0 {
		return nil, pgx.ErrNoRows
	}
	t.RequiredWorkers--
	cp := *t
	return &cp, nil
}

func (m *mockTasks) ReleaseSlotTx(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.RequiredWorkers++
	return nil
}

func (m *mockTasks) slots(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].RequiredWorkers
}

// --- submissions ---

type mockSubmissions struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*models.Submission
}

func newMockSubmissions() *mockSubmissions {
	return &mockSubmissions{subs: make(map[uuid.UUID]*models.Submission)}
}

func (m *mockSubmissions) CreateTx(_ context.Context, _ pgx.Tx, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *mockSubmissions) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubmissions) markTx(id uuid.UUID, status string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Status != models.SubmissionStatusPending {
		return nil, pgx.ErrNoRows
	}
	s.Status = status
	cp := *s
	return &cp, nil
}

func (m *mockSubmissions) MarkApprovedTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	return m.markTx(id, models.SubmissionStatusApproved)
}

func (m *mockSubmissions) MarkRejectedTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	return m.markTx(id, models.SubmissionStatusRejected)
}

func (m *mockSubmissions) DeletePendingByBuyerTx(_ context.Context, _ pgx.Tx, buyerEmail string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, s := range m.subs {
		if s.BuyerEmail == buyerEmail && s.Status == models.SubmissionStatusPending {
			delete(m.subs, id)
			removed++
		}
	}
	return removed, nil
}

// --- withdrawals ---

type mockWithdrawals struct {
	mu  sync.Mutex
	all map[uuid.UUID]*models.Withdrawal
}

func newMockWithdrawals() *mockWithdrawals {
	return &mockWithdrawals{all: make(map[uuid.UUID]*models.Withdrawal)}
}

func (m *mockWithdrawals) CreateTx(_ context.Context, _ pgx.Tx, w *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.all[w.ID] = &cp
	return nil
}

func (m *mockWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.all[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (m *mockWithdrawals) MarkApprovedTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.all[id]
	if !ok || w.Status != models.WithdrawalStatusPending {
		return nil, pgx.ErrNoRows
	}
	w.Status = models.WithdrawalStatusApproved
	cp := *w
	return &cp, nil
}

func (m *mockWithdrawals) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.all)
}

// --- payments ---

type mockPayments struct {
	mu  sync.Mutex
	all []*models.Payment
}

func (m *mockPayments) CreateTx(_ context.Context, _ pgx.Tx, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.all = append(m.all, &cp)
	return nil
}

// --- notification sink ---

type notificationSink struct {
	mu   sync.Mutex
	sent []notify.NotificationJobArgs
}

func (n *notificationSink) enqueue(_ context.Context, _ pgx.Tx, args notify.NotificationJobArgs) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, args)
	return nil
}

func (n *notificationSink) to(email string) []notify.NotificationJobArgs {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.NotificationJobArgs
	for _, a := range n.sent {
		if a.ToEmail == email {
			out = append(out, a)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Test fixture
// ---------------------------------------------------------------------------

const adminEmail = "admin@earnspherex.app"

type fixture struct {
	svc         *EconomyService
	users       *mockUsers
	tasks       *mockTasks
	submissions *mockSubmissions
	withdrawals *mockWithdrawals
	payments    *mockPayments
	sink        *notificationSink
}

func newFixture(users []*models.User, tasks []*models.Task) *fixture {
	f := &fixture{
		users:       newMockUsers(users...),
		tasks:       newMockTasks(tasks...),
		submissions: newMockSubmissions(),
		withdrawals: newMockWithdrawals(),
		payments:    &mockPayments{},
		sink:        &notificationSink{},
	}
	f.svc = NewEconomyService(mockPool{}, f.users, f.tasks, f.submissions, f.withdrawals, f.payments, f.sink.enqueue, adminEmail, slog.Default())
	return f
}

func buyer(email string, coins int) *models.User {
	return &models.User{ID: uuid.New(), Email: email, Name: "Buyer " + email, Role: models.RoleBuyer, Coins: coins, GrantedRoles: []string{models.RoleBuyer}}
}

func worker(email string, coins int) *models.User {
	return &models.User{ID: uuid.New(), Email: email, Name: "Worker " + email, Role: models.RoleWorker, Coins: coins, GrantedRoles: []string{models.RoleWorker}}
}

func openTask(createdBy string, slots, payable int) *models.Task {
	return &models.Task{ID: uuid.New(), CreatedBy: createdBy, Title: "Label 50 images", RequiredWorkers: slots, PayableAmount: payable, TotalPayable: slots * payable}
}

// ---------------------------------------------------------------------------
// 1. Submission creation
// ---------------------------------------------------------------------------

func TestSubmitWork(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 10)
	task := openTask(b.Email, 3, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})

	ctx := context.Background()
	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "done, see attachment")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}

	if got := f.tasks.slots(task.ID); got != 2 {
		t.Errorf("required_workers after submit: got %d, want 2", got)
	}
	if sub.Status != models.SubmissionStatusPending {
		t.Errorf("status: got %q, want pending", sub.Status)
	}
	if sub.PayableAmount != 5 {
		t.Errorf("payable amount should come from the task: got %d, want 5", sub.PayableAmount)
	}
	if sub.BuyerEmail != b.Email {
		t.Errorf("buyer email: got %q, want %q", sub.BuyerEmail, b.Email)
	}

	// Exactly one notification, to the buyer.
	if got := f.sink.to(b.Email); len(got) != 1 {
		t.Fatalf("buyer notifications: got %d, want 1", len(got))
	}
}

func TestSubmitWork_NoCapacity(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 10)
	task := openTask(b.Email, 0, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})

	ctx := context.Background()
	if _, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, ""); err != ErrTaskFull {
		t.Errorf("full task: got %v, want ErrTaskFull", err)
	}
	if _, err := f.svc.SubmitWork(ctx, uuid.New(), w.Email, w.Name, ""); err != ErrNotFound {
		t.Errorf("missing task: got %v, want ErrNotFound", err)
	}
	if got := f.tasks.slots(task.ID); got != 0 {
		t.Errorf("required_workers must be untouched: got %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// 2. Submission approval
// ---------------------------------------------------------------------------

func TestApproveSubmission_CreditsExactlyOnce(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 10)
	task := openTask(b.Email, 1, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})

	ctx := context.Background()
	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}

	approved, err := f.svc.ApproveSubmission(ctx, sub.ID, b)
	if err != nil {
		t.Fatalf("ApproveSubmission: %v", err)
	}
	if approved.Status != models.SubmissionStatusApproved {
		t.Errorf("status: got %q, want approved", approved.Status)
	}
	if got := f.users.get(w.Email).Coins; got != 15 {
		t.Errorf("worker coins: got %d, want 15", got)
	}
	// Capacity was consumed at submit time and stays consumed.
	if got := f.tasks.slots(task.ID); got != 0 {
		t.Errorf("required_workers after approve: got %d, want 0", got)
	}

	// A second approval must not double-credit.
	if _, err := f.svc.ApproveSubmission(ctx, sub.ID, b); err != ErrAlreadyDecided {
		t.Fatalf("second approve: got %v, want ErrAlreadyDecided", err)
	}
	if got := f.users.get(w.Email).Coins; got != 15 {
		t.Errorf("worker coins after double approve: got %d, want 15", got)
	}
	if got := f.sink.to(w.Email); len(got) != 1 {
		t.Errorf("worker notifications: got %d, want 1", len(got))
	}
}

func TestApproveSubmission_WrongBuyer(t *testing.T) {
	b := buyer("b@x.com", 100)
	other := buyer("other@x.com", 100)
	w := worker("w@x.com", 0)
	task := openTask(b.Email, 1, 5)
	f := newFixture([]*models.User{b, other, w}, []*models.Task{task})

	ctx := context.Background()
	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if _, err := f.svc.ApproveSubmission(ctx, sub.ID, other); err != ErrForbidden {
		t.Fatalf("foreign buyer approve: got %v, want ErrForbidden", err)
	}
	if got := f.users.get(w.Email).Coins; got != 0 {
		t.Errorf("worker coins after forbidden approve: got %d, want 0", got)
	}
}

func TestApproveSubmission_NotFound(t *testing.T) {
	b := buyer("b@x.com", 100)
	f := newFixture([]*models.User{b}, nil)
	if _, err := f.svc.ApproveSubmission(context.Background(), uuid.New(), b); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// 3. Submission rejection
// ---------------------------------------------------------------------------

func TestRejectSubmission_RestoresSlot(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 10)
	task := openTask(b.Email, 1, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})

	ctx := context.Background()
	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if got := f.tasks.slots(task.ID); got != 0 {
		t.Fatalf("required_workers after submit: got %d, want 0", got)
	}

	rejected, err := f.svc.RejectSubmission(ctx, sub.ID, b)
	if err != nil {
		t.Fatalf("RejectSubmission: %v", err)
	}
	if rejected.Status != models.SubmissionStatusRejected {
		t.Errorf("status: got %q, want rejected", rejected.Status)
	}
	if got := f.tasks.slots(task.ID); got != 1 {
		t.Errorf("required_workers after reject: got %d, want 1", got)
	}
	// No coins move on rejection.
	if got := f.users.get(w.Email).Coins; got != 10 {
		t.Errorf("worker coins: got %d, want 10", got)
	}
	if got := f.sink.to(w.Email); len(got) != 1 {
		t.Errorf("worker notifications: got %d, want 1", len(got))
	}

	// Terminal: rejecting or approving again is refused.
	if _, err := f.svc.RejectSubmission(ctx, sub.ID, b); err != ErrAlreadyDecided {
		t.Errorf("second reject: got %v, want ErrAlreadyDecided", err)
	}
	if _, err := f.svc.ApproveSubmission(ctx, sub.ID, b); err != ErrAlreadyDecided {
		t.Errorf("approve after reject: got %v, want ErrAlreadyDecided", err)
	}
}

// ---------------------------------------------------------------------------
// 4. Withdrawal request
// ---------------------------------------------------------------------------

func TestRequestWithdrawal_MinimumFloor(t *testing.T) {
	w := worker("w@x.com", 500)
	f := newFixture([]*models.User{w}, nil)
	ctx := context.Background()

	if _, err := f.svc.RequestWithdrawal(ctx, w, 150, "bkash", "0170000000"); err != ErrBelowMinimum {
		t.Fatalf("150 coins: got %v, want ErrBelowMinimum", err)
	}
	if got := f.withdrawals.count(); got != 0 {
		t.Fatalf("no record may exist after a rejected request, got %d", got)
	}

	req, err := f.svc.RequestWithdrawal(ctx, w, 200, "bkash", "0170000000")
	if err != nil {
		t.Fatalf("200 coins: %v", err)
	}
	if req.Status != models.WithdrawalStatusPending {
		t.Errorf("status: got %q, want pending", req.Status)
	}
	if req.WithdrawalAmount != 10 {
		t.Errorf("dollar amount: got %v, want 10", req.WithdrawalAmount)
	}
	if got := f.sink.to(adminEmail); len(got) != 1 {
		t.Fatalf("admin notifications: got %d, want 1", len(got))
	}
}

// ---------------------------------------------------------------------------
// 5. Withdrawal approval
// ---------------------------------------------------------------------------

func TestApproveWithdrawal(t *testing.T) {
	w := worker("w@x.com", 500)
	f := newFixture([]*models.User{w}, nil)
	ctx := context.Background()

	req, err := f.svc.RequestWithdrawal(ctx, w, 300, "nagad", "0180000000")
	if err != nil {
		t.Fatalf("RequestWithdrawal: %v", err)
	}

	approved, err := f.svc.ApproveWithdrawal(ctx, req.ID)
	if err != nil {
		t.Fatalf("ApproveWithdrawal: %v", err)
	}
	if approved.Status != models.WithdrawalStatusApproved {
		t.Errorf("status: got %q, want approved", approved.Status)
	}
	after := f.users.get(w.Email)
	if after.Coins != 200 {
		t.Errorf("coins: got %d, want 200", after.Coins)
	}
	if after.Earnings != 15 {
		t.Errorf("earnings: got %v, want 15 (300/20)", after.Earnings)
	}

	// Re-approval is refused and changes nothing.
	if _, err := f.svc.ApproveWithdrawal(ctx, req.ID); err != ErrAlreadyDecided {
		t.Fatalf("second approve: got %v, want ErrAlreadyDecided", err)
	}
	after = f.users.get(w.Email)
	if after.Coins != 200 || after.Earnings != 15 {
		t.Errorf("balance changed on re-approval: coins=%d earnings=%v", after.Coins, after.Earnings)
	}
	if got := f.sink.to(w.Email); len(got) != 1 {
		t.Errorf("worker notifications: got %d, want 1", len(got))
	}
}

func TestApproveWithdrawal_InsufficientCoins(t *testing.T) {
	w := worker("w@x.com", 500)
	f := newFixture([]*models.User{w}, nil)
	ctx := context.Background()

	req, err := f.svc.RequestWithdrawal(ctx, w, 400, "bkash", "0170000000")
	if err != nil {
		t.Fatalf("RequestWithdrawal: %v", err)
	}
	// Coins drain between request and approval.
	f.users.byEmail[w.Email].Coins = 100

	if _, err := f.svc.ApproveWithdrawal(ctx, req.ID); err != ErrInsufficientCoins {
		t.Fatalf("got %v, want ErrInsufficientCoins", err)
	}
	after := f.users.get(w.Email)
	if after.Coins != 100 || after.Earnings != 0 {
		t.Errorf("balance must be untouched: coins=%d earnings=%v", after.Coins, after.Earnings)
	}
}

// ---------------------------------------------------------------------------
// 6. Buyer refund
// ---------------------------------------------------------------------------

func TestRefundBuyer(t *testing.T) {
	b := buyer("b@x.com", 20)
	w := worker("w@x.com", 0)
	t1 := openTask(b.Email, 2, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{t1})
	ctx := context.Background()

	sub, err := f.svc.SubmitWork(ctx, t1.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}

	removed, err := f.svc.RefundBuyer(ctx, b.Email, 30)
	if err != nil {
		t.Fatalf("RefundBuyer: %v", err)
	}
	if removed != 1 {
		t.Errorf("pending submissions removed: got %d, want 1", removed)
	}
	if got := f.users.get(b.Email).Coins; got != 50 {
		t.Errorf("buyer coins: got %d, want 50", got)
	}
	if _, err := f.submissions.GetByID(ctx, sub.ID); err == nil {
		t.Error("pending submission should have been cascade-deleted")
	}
	if got := f.sink.to(b.Email); len(got) != 2 { // submit notice + refund notice
		t.Errorf("buyer notifications: got %d, want 2", len(got))
	}

	if _, err := f.svc.RefundBuyer(ctx, b.Email, 0); err != ErrInvalidAmount {
		t.Errorf("zero refund: got %v, want ErrInvalidAmount", err)
	}
	if _, err := f.svc.RefundBuyer(ctx, "ghost@x.com", 10); err != ErrNotFound {
		t.Errorf("unknown buyer: got %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// 7. Role assignment
// ---------------------------------------------------------------------------

func TestAssignRole(t *testing.T) {
	u := worker("w@x.com", 999)
	f := newFixture([]*models.User{u}, nil)
	ctx := context.Background()

	// First assignment of buyer grants the buyer baseline.
	got, err := f.svc.AssignRole(ctx, u.ID, models.RoleBuyer)
	if err != nil {
		t.Fatalf("AssignRole buyer: %v", err)
	}
	if got.Role != models.RoleBuyer || got.Coins != models.StartingCoinsBuyer {
		t.Errorf("after worker->buyer: role=%q coins=%d, want buyer/50", got.Role, got.Coins)
	}

	// Back to worker: the worker grant was already consumed at registration,
	// so the balance is left alone.
	got, err = f.svc.AssignRole(ctx, u.ID, models.RoleWorker)
	if err != nil {
		t.Fatalf("AssignRole worker: %v", err)
	}
	if got.Role != models.RoleWorker {
		t.Errorf("role: got %q, want worker", got.Role)
	}
	if got.Coins != models.StartingCoinsBuyer {
		t.Errorf("repeat grant must not reset coins: got %d, want %d", got.Coins, models.StartingCoinsBuyer)
	}

	if _, err := f.svc.AssignRole(ctx, u.ID, "superuser"); err != ErrInvalidRole {
		t.Errorf("bad role: got %v, want ErrInvalidRole", err)
	}
	if _, err := f.svc.AssignRole(ctx, uuid.New(), models.RoleAdmin); err != ErrNotFound {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// 8. Coin purchase
// ---------------------------------------------------------------------------

func TestPurchaseCoins(t *testing.T) {
	b := buyer("b@x.com", 50)
	f := newFixture([]*models.User{b}, nil)
	ctx := context.Background()

	p, err := f.svc.PurchaseCoins(ctx, b.Email, 100, 999, "pi_123", "card")
	if err != nil {
		t.Fatalf("PurchaseCoins: %v", err)
	}
	if got := f.users.get(b.Email).Coins; got != 150 {
		t.Errorf("buyer coins: got %d, want 150", got)
	}
	if len(f.payments.all) != 1 || f.payments.all[0].TransactionID != "pi_123" {
		t.Fatalf("payment record missing or wrong: %+v", f.payments.all)
	}
	if p.Coins != 100 {
		t.Errorf("payment coins: got %d, want 100", p.Coins)
	}
	if got := f.sink.to(b.Email); len(got) != 1 {
		t.Errorf("buyer notifications: got %d, want 1", len(got))
	}
}

// ---------------------------------------------------------------------------
// 9. End-to-end scenarios
// ---------------------------------------------------------------------------

func TestScenario_SubmitThenApprove(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 0)
	task := openTask(b.Email, 1, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})
	ctx := context.Background()

	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if f.tasks.slots(task.ID) != 0 || sub.Status != models.SubmissionStatusPending {
		t.Fatalf("after submit: slots=%d status=%q", f.tasks.slots(task.ID), sub.Status)
	}

	if _, err := f.svc.ApproveSubmission(ctx, sub.ID, b); err != nil {
		t.Fatalf("ApproveSubmission: %v", err)
	}
	if got := f.users.get(w.Email).Coins; got != 5 {
		t.Errorf("worker coins: got %d, want 5", got)
	}
	if got := f.tasks.slots(task.ID); got != 0 {
		t.Errorf("approval must not change capacity: got %d, want 0", got)
	}
}

func TestScenario_SubmitThenReject(t *testing.T) {
	b := buyer("b@x.com", 100)
	w := worker("w@x.com", 0)
	task := openTask(b.Email, 1, 5)
	f := newFixture([]*models.User{b, w}, []*models.Task{task})
	ctx := context.Background()

	sub, err := f.svc.SubmitWork(ctx, task.ID, w.Email, w.Name, "")
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if got := f.tasks.slots(task.ID); got != 0 {
		t.Fatalf("after submit: slots=%d, want 0", got)
	}

	rejected, err := f.svc.RejectSubmission(ctx, sub.ID, b)
	if err != nil {
		t.Fatalf("RejectSubmission: %v", err)
	}
	if f.tasks.slots(task.ID) != 1 || rejected.Status != models.SubmissionStatusRejected {
		t.Errorf("after reject: slots=%d status=%q, want 1/rejected", f.tasks.slots(task.ID), rejected.Status)
	}
}
