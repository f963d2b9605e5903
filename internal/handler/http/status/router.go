package status_http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vinreport/internal/repository/purchases_repo"
	"vinreport/internal/repository/session_repo"
)

func RegisterRoutes(r chi.Router, sessions session_repo.Repository, purchases purchases_repo.PurchaseRepository, db *sql.DB, l *zap.Logger) {
	handler := NewStatusHandler(sessions, purchases, db, l.With(zap.String("component", "StatusHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("VIN report service is healthy!"))
		})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/{chatID}", handler.GetSessionHandler)
	})

	r.Route("/purchases", func(r chi.Router) {
		r.Get("/{chatID}", handler.ListPurchasesHandler)
	})
}
