package router

import (
	"net/http"

	"github.com/TaFhiM12/EarnSphereX-server/internal/auth"
	"github.com/TaFhiM12/EarnSphereX-server/internal/dashboard"
	"github.com/TaFhiM12/EarnSphereX-server/internal/handlers"
	"github.com/TaFhiM12/EarnSphereX-server/internal/middleware"
	"github.com/TaFhiM12/EarnSphereX-server/internal/models"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Auth          *auth.Handler
	Tasks         *handlers.TaskHandler
	Submissions   *handlers.SubmissionHandler
	Withdrawals   *handlers.WithdrawalHandler
	Users         *handlers.UserHandler
	Payments      *handlers.PaymentHandler
	Notifications *handlers.NotificationHandler
	Dashboard     *dashboard.Handler

	TokenValidator middleware.TokenValidator
	UserLookup     middleware.UserLookup
}

// New returns an http.Handler serving the API under /api/v1.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	authed := middleware.RequireAuth(d.TokenValidator, d.UserLookup)
	buyer := middleware.RequireRole(models.RoleBuyer, models.RoleAdmin)
	worker := middleware.RequireRole(models.RoleWorker)
	admin := middleware.RequireRole(models.RoleAdmin)

	handle := func(pattern string, h http.HandlerFunc, mw ...func(http.Handler) http.Handler) {
		var handler http.Handler = h
		for i := len(mw) - 1; i >= 0; i-- {
			handler = mw[i](handler)
		}
		mux.Handle(pattern, handler)
	}

	// Public.
	handle("POST "+base+"/auth/register", d.Auth.Register)
	handle("POST "+base+"/auth/login", d.Auth.Login)
	handle("GET "+base+"/tasks", d.Tasks.ListOpen)
	handle("GET "+base+"/tasks/trending", d.Tasks.Trending)
	handle("GET "+base+"/users/best-workers", d.Users.BestWorkers)
	handle("GET "+base+"/payments/packages", d.Payments.ListPackages)
	handle("GET "+base+"/payments/packages/{id}", d.Payments.GetPackage)

	// Any authenticated role.
	handle("GET "+base+"/users/me", d.Users.Me, authed)
	handle("GET "+base+"/users/role", d.Users.Role, authed)
	handle("PATCH "+base+"/users/me", d.Users.UpdateProfile, authed)
	handle("GET "+base+"/tasks/{id}", d.Tasks.Get, authed)
	handle("GET "+base+"/notifications", d.Notifications.List, authed)
	handle("GET "+base+"/notifications/unread-count", d.Notifications.UnreadCount, authed)
	handle("PATCH "+base+"/notifications/{id}/read", d.Notifications.MarkRead, authed)

	// Buyer (admin passes the buyer gate for moderation).
	handle("POST "+base+"/tasks", d.Tasks.Create, authed, buyer)
	handle("GET "+base+"/tasks/my", d.Tasks.ListMine, authed, buyer)
	handle("PATCH "+base+"/tasks/{id}", d.Tasks.Update, authed, buyer)
	handle("DELETE "+base+"/tasks/{id}", d.Tasks.Delete, authed, buyer)
	handle("GET "+base+"/submissions/pending", d.Submissions.ListPending, authed, buyer)
	handle("PATCH "+base+"/submissions/{id}/approve", d.Submissions.Approve, authed, buyer)
	handle("PATCH "+base+"/submissions/{id}/reject", d.Submissions.Reject, authed, buyer)
	handle("POST "+base+"/users/refund", d.Users.Refund, authed, buyer)
	handle("POST "+base+"/payments/intent", d.Payments.CreateIntent, authed, buyer)
	handle("POST "+base+"/payments", d.Payments.Purchase, authed, buyer)
	handle("GET "+base+"/payments", d.Payments.History, authed, buyer)
	handle("GET "+base+"/dashboard/buyer", d.Dashboard.Buyer, authed, buyer)

	// Worker.
	handle("POST "+base+"/submissions", d.Submissions.Submit, authed, worker)
	handle("GET "+base+"/submissions/my", d.Submissions.ListMine, authed, worker)
	handle("POST "+base+"/withdrawals", d.Withdrawals.Create, authed, worker)
	handle("GET "+base+"/dashboard/worker", d.Dashboard.Worker, authed, worker)

	// Admin.
	handle("GET "+base+"/admin/users", d.Users.List, authed, admin)
	handle("PATCH "+base+"/admin/users/{id}/role", d.Users.AssignRole, authed, admin)
	handle("DELETE "+base+"/admin/users/{id}", d.Users.Delete, authed, admin)
	handle("POST "+base+"/admin/refund", d.Users.AdminRefund, authed, admin)
	handle("GET "+base+"/admin/tasks", d.Tasks.ListAll, authed, admin)
	handle("GET "+base+"/admin/withdrawals", d.Withdrawals.ListPending, authed, admin)
	handle("PATCH "+base+"/admin/withdrawals/{id}/approve", d.Withdrawals.Approve, authed, admin)
	handle("POST "+base+"/admin/packages", d.Payments.CreatePackage, authed, admin)
	handle("GET "+base+"/dashboard/admin", d.Dashboard.Admin, authed, admin)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
