package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/TaFhiM12/EarnSphereX-server/internal/auth"
	"github.com/TaFhiM12/EarnSphereX-server/internal/config"
	"github.com/TaFhiM12/EarnSphereX-server/internal/dashboard"
	"github.com/TaFhiM12/EarnSphereX-server/internal/handlers"
	"github.com/TaFhiM12/EarnSphereX-server/internal/notify"
	"github.com/TaFhiM12/EarnSphereX-server/internal/payments"
	"github.com/TaFhiM12/EarnSphereX-server/internal/repository"
	"github.com/TaFhiM12/EarnSphereX-server/internal/router"
	"github.com/TaFhiM12/EarnSphereX-server/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		slog.Error("Schema setup failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	withdrawalRepo := repository.NewWithdrawalRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)

	// Notification delivery via River
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewDeliverWorker(notificationRepo, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	enqueueNotification := func(ctx context.Context, tx pgx.Tx, args notify.NotificationJobArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}

	// Services
	economy := services.NewEconomyService(pool, userRepo, taskRepo, submissionRepo, withdrawalRepo, paymentRepo, enqueueNotification, cfg.AdminEmail, logger)
	authSvc := auth.NewService(userRepo, cfg.JWTSecret)

	// Handlers
	deps := router.Deps{
		Auth:          auth.NewHandler(authSvc, logger),
		Tasks:         &handlers.TaskHandler{Tasks: taskRepo, Logger: logger},
		Submissions:   &handlers.SubmissionHandler{Economy: economy, Submissions: submissionRepo, Logger: logger},
		Withdrawals:   &handlers.WithdrawalHandler{Economy: economy, Withdrawals: withdrawalRepo, Logger: logger},
		Users:         &handlers.UserHandler{Users: userRepo, Economy: economy, Logger: logger},
		Payments:      &handlers.PaymentHandler{Payments: paymentRepo, Economy: economy, Intents: payments.NewStripeClient(cfg.StripeSecretKey), Logger: logger},
		Notifications: &handlers.NotificationHandler{Notifications: notificationRepo, Logger: logger},
		Dashboard:     dashboard.NewHandler(dashboard.NewRepo(pool), logger),

		TokenValidator: authSvc,
		UserLookup:     userRepo,
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router.New(deps))

	// Start River client (delivers notifications)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
