package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seaboard-ops/port-finance/internal/handler"
	"github.com/seaboard-ops/port-finance/internal/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Wallet    *handler.WalletHandler
	Expense   *handler.ExpenseHandler
	Voucher   *handler.VoucherHandler
	Equipment *handler.EquipmentHandler
	Tally     *handler.TallyHandler
	Audit     *handler.AuditHandler
	Health    *handler.HealthHandler
}

func New(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Tracing)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Logging).Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtSecret))
			r.Use(middleware.Logging)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", h.Wallet.GetBalance)
				r.Get("/history", h.Wallet.GetHistory)
				r.Post("/topup", h.Wallet.TopUp)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", h.Expense.Submit)
				r.Get("/", h.Expense.List)
				r.Post("/bulk/approve", h.Expense.BulkApprove)
				r.Post("/bulk/finalize", h.Expense.BulkFinalize)
				r.Get("/{id}", h.Expense.Get)
				r.Post("/{id}/approve", h.Expense.Approve)
				r.Post("/{id}/reject", h.Expense.Reject)
				r.Post("/{id}/finalize", h.Expense.Finalize)
			})

			r.Route("/vouchers", func(r chi.Router) {
				r.Post("/", h.Voucher.Submit)
				r.Get("/", h.Voucher.List)
				r.Post("/bulk/approve", h.Voucher.BulkApprove)
				r.Post("/bulk/log", h.Voucher.BulkLog)
				r.Get("/{id}", h.Voucher.Get)
				r.Post("/{id}/approve", h.Voucher.Approve)
				r.Post("/{id}/decline", h.Voucher.Decline)
				r.Post("/{id}/log", h.Voucher.Log)
			})

			r.Route("/equipment", func(r chi.Router) {
				r.Post("/usage", h.Equipment.Start)
				r.Get("/usage", h.Equipment.List)
				r.Get("/usage/{id}", h.Equipment.Get)
				r.Post("/usage/{id}/close", h.Equipment.Close)
				r.Post("/rates", h.Equipment.CreateRateRule)
				r.Get("/rates", h.Equipment.ListRateRules)
				r.Post("/rates/{id}/deactivate", h.Equipment.DeactivateRateRule)
			})

			r.Route("/tally", func(r chi.Router) {
				r.Get("/", h.Tally.List)
				r.Post("/manual", h.Tally.RecordManual)
			})

			r.Get("/audit/{subjectType}/{subjectID}", h.Audit.History)
		})
	})

	return r
}
