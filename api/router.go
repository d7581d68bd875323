package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the HTTP routing table over a Handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/balances", h.ListBalances)
	r.Get("/users/{userID}/balance", h.GetBalance)
	r.Get("/users/{userID}/stakes", h.ListUserStakes)

	r.Get("/markets", h.ListOpenMarkets)
	r.Post("/markets", h.CreateMarket)
	r.Get("/markets/{marketID}", h.GetMarket)
	r.Post("/markets/{marketID}/stakes", h.PlaceStake)
	r.Post("/markets/{marketID}/resolve", h.ResolveMarket)
	r.Post("/markets/{marketID}/void", h.VoidMarket)

	r.Post("/admin/balance", h.ChangeBalance)
	r.Post("/admin/reset", h.ResetAll)

	r.Get("/stats", h.GetStats)

	return r
}
