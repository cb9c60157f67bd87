package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fattura-app/fattura/internal/bank"
	"github.com/fattura-app/fattura/internal/billing"
	"github.com/fattura-app/fattura/internal/calendar"
	"github.com/fattura-app/fattura/internal/clients"
	"github.com/fattura-app/fattura/internal/dashboard"
	"github.com/fattura-app/fattura/internal/expenses"
	"github.com/fattura-app/fattura/internal/fees"
	"github.com/fattura-app/fattura/internal/templates"
	"github.com/fattura-app/fattura/internal/todos"
	"github.com/fattura-app/fattura/jobs"
)

// StatsInvalidator drops cached dashboard aggregates. Satisfied by
// dashboard.Service.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// RouterParams collects every mounted handler.
type RouterParams struct {
	Middleware []func(http.Handler) http.Handler
	Stats      StatsInvalidator

	Clients   *clients.Handler
	Templates *templates.Handler
	Bank      *bank.Handler
	Invoices  *billing.Handler
	Fees      *fees.Handler
	Expenses  *expenses.Handler
	Dashboard *dashboard.Handler
	Todos     *todos.Handler
	Calendar  *calendar.Handler
	Jobs      *jobs.Handler
}

// NewRouter assembles the HTTP API.
func NewRouter(p RouterParams) *chi.Mux {
	r := chi.NewRouter()
	r.Use(p.Middleware...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Invoice, fee and expense mutations change the numbers the dashboard
	// reports, so their routes carry the cache invalidation middleware.
	invalidate := invalidateStats(p.Stats)

	r.Route("/clients", p.Clients.MountRoutes)
	r.Route("/templates", p.Templates.MountRoutes)
	r.Route("/bank-details", p.Bank.MountRoutes)
	r.Route("/invoices", func(r chi.Router) {
		r.Use(invalidate)
		p.Invoices.MountRoutes(r)
	})
	r.Route("/fees", func(r chi.Router) {
		r.Use(invalidate)
		p.Fees.MountRoutes(r)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Use(invalidate)
		p.Expenses.MountRoutes(r)
	})
	r.Route("/dashboard", p.Dashboard.MountRoutes)
	r.Route("/todos", p.Todos.MountRoutes)
	r.Route("/calendar", p.Calendar.MountRoutes)
	if p.Jobs != nil {
		r.Route("/jobs", p.Jobs.MountRoutes)
	}
	return r
}

// invalidateStats drops the dashboard cache after a successful mutating
// request. Reads and failed writes leave the cache alone.
func invalidateStats(stats StatsInvalidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if stats == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() < http.StatusBadRequest {
				stats.Invalidate(r.Context())
			}
		})
	}
}
