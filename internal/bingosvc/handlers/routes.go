package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Get("/cards/generate", h.GenerateCardsHandler)
		r.Post("/cards/purchase", h.PurchaseHandler)
		r.Get("/cards/{cardID}", h.GetCardHandler)

		r.Post("/games", h.CreateGameHandler)
		r.Get("/games", h.ListGamesHandler)
		r.Get("/games/{gameID}", h.GetGameHandler)
		r.Patch("/games/{gameID}", h.UpdateGameHandler)
		r.Get("/games/{gameID}/claims", h.GameClaimsHandler)
		r.Get("/games/{gameID}/winners", h.GameWinnersHandler)

		r.Post("/claims", h.SubmitClaimHandler)
		r.Patch("/claims/{claimID}", h.ResolveClaimHandler)

		r.Patch("/winners/{winnerID}", h.MarkWinnerPaidHandler)

		r.Get("/stats", h.StatsHandler)

		// Owner-scoped routes, gated by the purchase access token
		r.Group(func(r chi.Router) {
			r.Use(h.auth.Verifier())
			r.Use(h.auth.Authenticator)

			r.Get("/cards", h.MyCardsHandler)
		})
	})
}
