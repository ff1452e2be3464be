package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/assignments"
	"github.com/microbooks/microbooks/internal/books/balances"
	"github.com/microbooks/microbooks/internal/books/categories"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/reports"
	"github.com/microbooks/microbooks/internal/books/taxes"
	"github.com/microbooks/microbooks/internal/books/transactions"
	"github.com/microbooks/microbooks/internal/observability"
	"github.com/microbooks/microbooks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	PeriodsHandler      *periods.Handler
	AccountsHandler     *accounts.Handler
	CategoriesHandler   *categories.Handler
	TaxesHandler        *taxes.Handler
	TransactionsHandler *transactions.Handler
	BalancesHandler     *balances.Handler
	AssignmentsHandler  *assignments.Handler
	ReportsHandler      *reports.Handler
	JobsHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.PeriodsHandler != nil {
			r.Route("/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.CategoriesHandler != nil {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		}
		if params.TaxesHandler != nil {
			r.Route("/taxes", params.TaxesHandler.MountRoutes)
		}
		if params.TransactionsHandler != nil {
			r.Route("/transactions", params.TransactionsHandler.MountRoutes)
		}
		if params.BalancesHandler != nil {
			r.Route("/balances", params.BalancesHandler.MountRoutes)
		}
		if params.AssignmentsHandler != nil {
			r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
