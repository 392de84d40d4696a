package http

import (
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/unrolled/secure"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// RateLimitPerMinute bounds lifecycle calls per client IP.
	RateLimitPerMinute int
	Production         bool
}

type Handlers struct {
	Payroll PayrollHandler
	PayRun  PayRunHandler
	Tax     TaxHandler
	Challan ChallanHandler
}

func NewRouter(JWTService jwt.Service, h Handlers, m *metrics.Metrics, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 30
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	}).Handler)

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(m.Middleware)

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Handle("/metrics", m.Handler())

	lifecycleLimit := httprate.Limit(opts.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	approvers := middleware.RequireRole(middleware.RoleOwner, middleware.RoleManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)
		r.Use(middleware.RequireCompany)
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/payroll", func(r chi.Router) {
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.Payroll.GetSettings)
				r.Put("/", h.Payroll.UpdateSettings)
			})

			r.Route("/components", func(r chi.Router) {
				r.Get("/", h.Payroll.ListComponents)
				r.Post("/", h.Payroll.CreateComponent)
				r.Delete("/{id}", h.Payroll.DeleteComponent)
			})

			r.Route("/tax-configurations", func(r chi.Router) {
				r.Get("/", h.Tax.List)
				r.Get("/active", h.Tax.GetActive)

				// Owner or manager only
				r.Group(func(r chi.Router) {
					r.Use(approvers)
					r.Post("/", h.Tax.Save)
					r.Post("/{id}/activate", h.Tax.Activate)
				})
			})

			r.Route("/periods", func(r chi.Router) {
				r.Get("/", h.Payroll.ListPeriods)
				r.Post("/", h.Payroll.CreatePeriod)
				r.Post("/{id}/pay-runs", h.PayRun.Create)
			})

			r.Route("/pay-runs", func(r chi.Router) {
				r.Get("/", h.PayRun.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.PayRun.Get)
					r.Get("/payrolls", h.PayRun.ListPayrolls)
					r.Get("/summary", h.PayRun.Summary)
					r.Get("/disbursements", h.PayRun.Disbursements)

					r.Group(func(r chi.Router) {
						r.Use(lifecycleLimit)
						r.Post("/generate", h.PayRun.Generate)

						// Owner or manager only
						r.With(approvers).Post("/finalize", h.PayRun.Finalize)
						r.With(approvers).Post("/rollback", h.PayRun.Rollback)
					})
				})
			})

			r.Route("/payrolls/{id}", func(r chi.Router) {
				r.Get("/", h.Payroll.GetPayroll)
				r.Patch("/", h.Payroll.UpdatePayroll)
				r.Post("/approve", h.Payroll.ApprovePayroll)
				r.Post("/recalculate", h.Payroll.RecalculatePayroll)
				r.Get("/audit-logs", h.Payroll.ListAuditLogs)
			})

			r.Route("/challans", func(r chi.Router) {
				r.Get("/", h.Challan.List)
				r.With(approvers).Post("/{id}/pay", h.Challan.MarkPaid)
			})
		})
	})

	return r
}

// NewLogger builds the JSON slog logger used for request and service logs.
func NewLogger(env, version string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", version),
		slog.String("env", env),
	)
}
