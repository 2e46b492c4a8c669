package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
	"github.com/TaFhiM12/EarnSphereX-server/internal/notify"
)

// Sentinel errors surfaced by the economy service. Handlers map these to
// HTTP statuses; anything else is an internal failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrTaskFull          = errors.New("task has no remaining worker slots")
	ErrAlreadyDecided    = errors.New("record is already in a terminal status")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrBelowMinimum      = errors.New("minimum withdrawal is 200 coins ($10)")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EconomyUserRepo is the minimal user repository interface for the economy service.
type EconomyUserRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	CreditCoinsTx(ctx context.Context, tx pgx.Tx, email string, amount int) (newBalance int, err error)
	DebitCoinsForWithdrawalTx(ctx context.Context, tx pgx.Tx, email string, coins int, earningsDelta float64) (newBalance int, err error)
	SetRoleTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, role string, baselineCoins int, grantBaseline bool) error
}

// EconomyTaskRepo covers the slot counter mutations and the existence check.
type EconomyTaskRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ClaimSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	ReleaseSlotTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

type EconomySubmissionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error)
	MarkRejectedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error)
	DeletePendingByBuyerTx(ctx context.Context, tx pgx.Tx, buyerEmail string) (int64, error)
}

type EconomyWithdrawalRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error)
}

type EconomyPaymentRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error
}

// InsertNotificationTxFunc enqueues a delivery job within the given
// transaction. In production this is a closure over river.Client.InsertTx.
type InsertNotificationTxFunc func(ctx context.Context, tx pgx.Tx, args notify.NotificationJobArgs) error

// EconomyService owns every cross-entity coin, counter, and status
// mutation. Each operation runs in a single transaction with its
// preconditions re-checked inside it (the status UPDATEs are guarded, the
// balance UPDATEs are conditional), and every coin movement enqueues
// exactly one notification to the affected identity in the same
// transaction. Monetary amounts always come from the stored record, never
// from the caller.
type EconomyService struct {
	pool        TxBeginner
	users       EconomyUserRepo
	tasks       EconomyTaskRepo
	submissions EconomySubmissionRepo
	withdrawals EconomyWithdrawalRepo
	payments    EconomyPaymentRepo
	enqueue     InsertNotificationTxFunc
	adminEmail  string
	log         *slog.Logger
}

func NewEconomyService(
	pool TxBeginner,
	users EconomyUserRepo,
	tasks EconomyTaskRepo,
	submissions EconomySubmissionRepo,
	withdrawals EconomyWithdrawalRepo,
	payments EconomyPaymentRepo,
	enqueue InsertNotificationTxFunc,
	adminEmail string,
	log *slog.Logger,
) *EconomyService {
	if log == nil {
		log = slog.Default()
	}
	return &EconomyService{
		pool:        pool,
		users:       users,
		tasks:       tasks,
		submissions: submissions,
		withdrawals: withdrawals,
		payments:    payments,
		enqueue:     enqueue,
		adminEmail:  adminEmail,
		log:         log,
	}
}

func (s *EconomyService) notifyTx(ctx context.Context, tx pgx.Tx, toEmail, message, actionRoute string) error {
	return s.enqueue(ctx, tx, notify.NotificationJobArgs{
		NotificationID: uuid.New(),
		ToEmail:        toEmail,
		Message:        message,
		ActionRoute:    actionRoute,
	})
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// SubmitWork claims a task slot and records a pending submission as one
// unit: either the counter goes down and the submission exists, or neither.
// Buyer identity and the payable amount are denormalized from the task row
// returned by the claim.
func (s *EconomyService) SubmitWork(ctx context.Context, taskID uuid.UUID, workerEmail, workerName, details string) (*models.Submission, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	task, err := s.tasks.ClaimSlotTx(ctx, tx, taskID)
	if err != nil {
		if !isNoRows(err) {
			return nil, fmt.Errorf("claim slot: %w", err)
		}
		// No slot claimed: distinguish a missing task from a full one.
		if _, gerr := s.tasks.GetByID(ctx, taskID); gerr != nil {
			return nil, ErrNotFound
		}
		return nil, ErrTaskFull
	}

	buyerName := ""
	if buyer, err := s.users.GetByEmail(ctx, task.CreatedBy); err == nil {
		buyerName = buyer.Name
	}

	sub := &models.Submission{
		ID:            uuid.New(),
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		PayableAmount: task.PayableAmount,
		WorkerEmail:   workerEmail,
		WorkerName:    workerName,
		BuyerEmail:    task.CreatedBy,
		BuyerName:     buyerName,
		Details:       details,
		Status:        models.SubmissionStatusPending,
	}
	if err := s.submissions.CreateTx(ctx, tx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	msg := fmt.Sprintf("You have a new submission for %s from %s", task.Title, workerName)
	if err := s.notifyTx(ctx, tx, task.CreatedBy, msg, models.ActionRouteBuyerHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// ApproveSubmission flips a pending submission to approved and credits the
// worker with the submission's stored payable amount. The pending check is
// part of the status UPDATE, so approving the same submission twice fails
// with ErrAlreadyDecided instead of double-crediting. caller must be the
// submission's buyer, or an admin.
func (s *EconomyService) ApproveSubmission(ctx context.Context, submissionID uuid.UUID, caller *models.User) (*models.Submission, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sub, err := s.submissions.MarkApprovedTx(ctx, tx, submissionID)
	if err != nil {
		return nil, s.submissionDecisionErr(ctx, submissionID, err)
	}
	if caller.Role != models.RoleAdmin && caller.Email != sub.BuyerEmail {
		return nil, ErrForbidden
	}

	if _, err := s.users.CreditCoinsTx(ctx, tx, sub.WorkerEmail, sub.PayableAmount); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("worker %s: %w", sub.WorkerEmail, ErrNotFound)
		}
		return nil, fmt.Errorf("credit worker: %w", err)
	}

	msg := fmt.Sprintf("You have earned %d coins from %s for completing %s", sub.PayableAmount, sub.BuyerName, sub.TaskTitle)
	if err := s.notifyTx(ctx, tx, sub.WorkerEmail, msg, models.ActionRouteWorkerHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// RejectSubmission flips a pending submission to rejected and returns the
// claimed slot to the task, the exact inverse of SubmitWork's decrement.
// If the task was deleted in the meantime the rejection still stands and
// the missing slot release is logged.
func (s *EconomyService) RejectSubmission(ctx context.Context, submissionID uuid.UUID, caller *models.User) (*models.Submission, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sub, err := s.submissions.MarkRejectedTx(ctx, tx, submissionID)
	if err != nil {
		return nil, s.submissionDecisionErr(ctx, submissionID, err)
	}
	if caller.Role != models.RoleAdmin && caller.Email != sub.BuyerEmail {
		return nil, ErrForbidden
	}

	if err := s.tasks.ReleaseSlotTx(ctx, tx, sub.TaskID); err != nil {
		if !isNoRows(err) {
			return nil, fmt.Errorf("release slot: %w", err)
		}
		s.log.Warn("task gone, slot not released", "task_id", sub.TaskID, "submission_id", sub.ID)
	}

	msg := fmt.Sprintf("Your submission for %s has been rejected by %s", sub.TaskTitle, sub.BuyerName)
	if err := s.notifyTx(ctx, tx, sub.WorkerEmail, msg, models.ActionRouteWorkerHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// submissionDecisionErr translates a failed status CAS into ErrNotFound or
// ErrAlreadyDecided.
func (s *EconomyService) submissionDecisionErr(ctx context.Context, id uuid.UUID, err error) error {
	if !isNoRows(err) {
		return fmt.Errorf("update submission status: %w", err)
	}
	if _, gerr := s.submissions.GetByID(ctx, id); gerr != nil {
		return ErrNotFound
	}
	return ErrAlreadyDecided
}

// RequestWithdrawal records a pending cash-out request. Requests under the
// 200-coin floor are rejected before anything is written. The worker's
// balance is not checked here; an underfunded request simply fails at
// approval time.
func (s *EconomyService) RequestWithdrawal(ctx context.Context, worker *models.User, coins int, paymentSystem, accountNumber string) (*models.Withdrawal, error) {
	if coins < models.MinWithdrawalCoins {
		return nil, ErrBelowMinimum
	}

	w := &models.Withdrawal{
		ID:               uuid.New(),
		WorkerEmail:      worker.Email,
		WorkerName:       worker.Name,
		WithdrawalCoins:  coins,
		WithdrawalAmount: float64(coins) / models.CoinsPerDollar,
		PaymentSystem:    paymentSystem,
		AccountNumber:    accountNumber,
		Status:           models.WithdrawalStatusPending,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.withdrawals.CreateTx(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	msg := fmt.Sprintf("Withdrawal request for %d coins from %s submitted", coins, worker.Name)
	if err := s.notifyTx(ctx, tx, s.adminEmail, msg, models.ActionRouteAdminHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// ApproveWithdrawal flips a pending withdrawal to approved, debits the
// worker's coins by the stored amount and accrues earnings at the fixed
// 20-coins-per-dollar rate, all in one transaction. A second approval of
// the same request fails with ErrAlreadyDecided; an underfunded worker
// fails the conditional debit and the status flip rolls back with it.
func (s *EconomyService) ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := s.withdrawals.MarkApprovedTx(ctx, tx, withdrawalID)
	if err != nil {
		if !isNoRows(err) {
			return nil, fmt.Errorf("update withdrawal status: %w", err)
		}
		if _, gerr := s.withdrawals.GetByID(ctx, withdrawalID); gerr != nil {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyDecided
	}

	earningsDelta := float64(w.WithdrawalCoins) / models.CoinsPerDollar
	if _, err := s.users.DebitCoinsForWithdrawalTx(ctx, tx, w.WorkerEmail, w.WithdrawalCoins, earningsDelta); err != nil {
		if isNoRows(err) {
			return nil, ErrInsufficientCoins
		}
		return nil, fmt.Errorf("debit worker: %w", err)
	}

	msg := fmt.Sprintf("Your withdrawal request for %d coins has been approved", w.WithdrawalCoins)
	if err := s.notifyTx(ctx, tx, w.WorkerEmail, msg, models.ActionRouteWorkerHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// RefundBuyer credits the buyer and clears all of the buyer's pending
// submissions. The cascade is intentionally system-wide, matching how the
// marketplace has always behaved. Returns the number of submissions removed.
func (s *EconomyService) RefundBuyer(ctx context.Context, buyerEmail string, amount int) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.CreditCoinsTx(ctx, tx, buyerEmail, amount); err != nil {
		if isNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("credit buyer: %w", err)
	}
	removed, err := s.submissions.DeletePendingByBuyerTx(ctx, tx, buyerEmail)
	if err != nil {
		return 0, fmt.Errorf("clear pending submissions: %w", err)
	}

	msg := fmt.Sprintf("%d coins have been refunded to your account", amount)
	if err := s.notifyTx(ctx, tx, buyerEmail, msg, models.ActionRouteBuyerHome); err != nil {
		return 0, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("pending submissions cleared on refund", "buyer", buyerEmail, "removed", removed)
	}
	return removed, nil
}

// AssignRole sets a user's role. The starting grant for the new role is
// applied only the first time that role is assigned to the user; repeat
// assignments leave the coin balance untouched.
func (s *EconomyService) AssignRole(ctx context.Context, userID uuid.UUID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	grant := !u.HasRoleGrant(role)
	baseline := models.StartingCoins(role)
	if err := s.users.SetRoleTx(ctx, tx, userID, role, baseline, grant); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	u.Role = role
	if grant {
		u.Coins = baseline
		u.GrantedRoles = append(u.GrantedRoles, role)
	}
	return u, nil
}

// PurchaseCoins credits a confirmed coin purchase and records the payment
// as one unit.
func (s *EconomyService) PurchaseCoins(ctx context.Context, email string, coins int, amountCents int64, transactionID, paymentMethod string) (*models.Payment, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.CreditCoinsTx(ctx, tx, email, coins); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credit coins: %w", err)
	}

	p := &models.Payment{
		ID:            uuid.New(),
		Email:         email,
		Coins:         coins,
		AmountCents:   amountCents,
		TransactionID: transactionID,
		PaymentMethod: paymentMethod,
	}
	if err := s.payments.CreateTx(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	msg := fmt.Sprintf("%d coins have been added to your account", coins)
	if err := s.notifyTx(ctx, tx, email, msg, models.ActionRouteBuyerHome); err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
