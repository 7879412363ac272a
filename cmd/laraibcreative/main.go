package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/config"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/database"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/handler"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/notify"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/pricing"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/service"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/worker"
)

func main() {
	cfg := config.New()

	var st store.Store
	if cfg.DatabaseURI == "memory" {
		slog.Info("running with in-memory store")
		st = store.NewMemory()
	} else {
		db, err := database.NewDB(cfg.DatabaseURI)
		if err != nil {
			slog.Error("failed to connect to DB", "error", err)
			os.Exit(1)
		}
		defer database.CloseDB(db)

		if err := database.InitSchema(db); err != nil {
			slog.Error("failed to init DB schema", "error", err)
			os.Exit(1)
		}
		st = store.NewPostgres(db)
	}

	m := metrics.New("laraib")

	policy, err := lifecycle.NewPolicy()
	if err != nil {
		slog.Error("failed to build role policy", "error", err)
		os.Exit(1)
	}
	authority, err := lifecycle.NewAuthority(st, policy, lifecycle.Config{
		ProductionLock: model.Status(cfg.ProductionLock),
	}, m)
	if err != nil {
		slog.Error("failed to build lifecycle authority", "error", err)
		os.Exit(1)
	}

	// Services
	authSvc := service.NewAuthService(st)
	orderSvc := service.NewOrderService(st, authority, pricing.NewCalculator())
	paymentSvc := service.NewPaymentService(st, authority, m)
	queueSvc := service.NewQueueService(st, authority, m)
	trackingSvc, err := service.NewTrackingService(st)
	if err != nil {
		slog.Error("failed to build tracking service", "error", err)
		os.Exit(1)
	}

	seedStaff(authSvc, cfg)

	// Notifications: every committed event fans out to in-process
	// subscribers, and to RabbitMQ when a broker is configured.
	registry := notify.NewRegistry(16)
	defer registry.Close()
	publishers := notify.Fanout{notify.NewRegistryPublisher(registry)}
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.NotifyQueue)
		if err != nil {
			slog.Error("failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
	}

	relay := worker.NewRelay(st, publishers, m)

	trackingEvents := registry.Subscribe("tracking-cache")
	go func() {
		for evt := range trackingEvents {
			trackingSvc.HandleEvent(evt)
		}
	}()

	r := handler.Router(handler.Deps{
		Auth:      authSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Queue:     queueSvc,
		Tracking:  trackingSvc,
		Metrics:   m,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go relay.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop relay
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}

// seedStaff creates the staff account named in the environment so a fresh
// install has someone who can verify payments.
func seedStaff(authSvc *service.AuthService, cfg *config.Config) {
	if cfg.StaffLogin == "" || cfg.StaffPassword == "" {
		return
	}
	_, err := authSvc.Register(context.Background(), cfg.StaffLogin, cfg.StaffPassword, model.RoleStaff)
	switch {
	case errors.Is(err, model.ErrLoginTaken):
		slog.Info("staff account already present", "login", cfg.StaffLogin)
	case err != nil:
		slog.Error("failed to seed staff account", "error", err)
		os.Exit(1)
	default:
		slog.Info("staff account seeded", "login", cfg.StaffLogin)
	}
}
