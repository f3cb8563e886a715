package routes

import (
	"github.com/go-chi/chi"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/socketsvc/handlers"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/socketsvc/ws"
)

func SetRoutes(r *chi.Mux, hub *ws.Hub) {
	h := handlers.NewHandler(hub)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		r.Get("/health", h.HealthHandler)
	})
}
