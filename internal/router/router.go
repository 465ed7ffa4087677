package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mkfin/banking-backend/internal/handlers"
	"github.com/mkfin/banking-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	lm := middleware.NewLoggerMiddleware(deps.Log)
	r.Use(lm.LoggerMiddleware)

	m := middleware.NewMiddleware(deps.Firebase)

	bh := handlers.NewBankingHandlers(deps)
	ah := handlers.NewAccountHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(m.FirebaseAuth)
		r.Use(m.CompanyScope)

		r.Mount("/banking", bh.BankingRoutes())
		r.Mount("/accounts", ah.AccountRoutes())
	})

	return r
}
