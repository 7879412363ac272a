package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/mw"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/service"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth      *service.AuthService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Queue     *service.QueueService
	Tracking  *service.TrackingService
	Metrics   *metrics.Metrics
	JWTSecret string
}

// Router builds the full route tree: public auth and tracking, the customer
// order surface, and the staff dashboard.
func Router(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Metrics(d.Metrics))

	// Public routes
	r.Post("/api/auth/register", RegisterHandler(d.Auth, d.JWTSecret))
	r.Post("/api/auth/login", LoginHandler(d.Auth, d.JWTSecret))
	r.Get("/api/track/{orderNumber}", TrackOrderHandler(d.Tracking))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	// Customer routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(d.JWTSecret))

		r.Post("/api/orders", CreateOrderHandler(d.Orders))
		r.Get("/api/orders", ListOrdersHandler(d.Orders))
		r.Get("/api/orders/{orderID}", GetOrderHandler(d.Orders))
		r.Post("/api/orders/{orderID}/cancel", CancelOrderHandler(d.Orders))
		r.Post("/api/orders/{orderID}/payment", ResubmitPaymentHandler(d.Payments))
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(d.JWTSecret))
		r.Use(mw.RequireRole(model.RoleStaff))

		r.Get("/api/staff/orders", StaffListOrdersHandler(d.Orders))
		r.Post("/api/staff/orders/{orderID}/status", TransitionOrderHandler(d.Orders))
		r.Post("/api/staff/orders/{orderID}/payment", DecidePaymentHandler(d.Payments))

		r.Get("/api/staff/queue", ListQueueHandler(d.Queue))
		r.Post("/api/staff/queue/bulk-status", BulkSubStatusHandler(d.Queue))
		r.Post("/api/staff/queue/{itemID}/assign", AssignTailorHandler(d.Queue))
		r.Post("/api/staff/queue/{itemID}/reassign", ReassignTailorHandler(d.Queue))
		r.Post("/api/staff/queue/{itemID}/status", UpdateSubStatusHandler(d.Queue))
		r.Post("/api/staff/queue/{itemID}/notes", AddNoteHandler(d.Queue))

		r.Get("/api/staff/tailors", ListTailorsHandler(d.Queue))
		r.Post("/api/staff/tailors", RegisterTailorHandler(d.Queue))
		r.Post("/api/staff/tailors/notice", NotifyTailorsHandler(d.Queue))
	})

	return r
}
