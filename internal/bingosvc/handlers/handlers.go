package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
)

type Handler struct {
	games     *service.GameService
	claims    *service.ClaimService
	purchases *service.PurchaseService
	cards     *service.CardService
	stats     *service.StatsService
	auth      *TokenAuth
}

func NewHandler(games *service.GameService, claims *service.ClaimService,
	purchases *service.PurchaseService, cards *service.CardService,
	stats *service.StatsService, auth *TokenAuth) *Handler {
	return &Handler{
		games:     games,
		claims:    claims,
		purchases: purchases,
		cards:     cards,
		stats:     stats,
		auth:      auth,
	}
}

func respond(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Error encoding response: %s", err)
	}
}

// errorBody is the wire shape of every failed request.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps the service error taxonomy onto HTTP statuses: validation
// and conflicts are 400, unknown ids 404, facilitator failures 400 with the
// upstream reason, anything else a logged generic 500.
func writeError(w http.ResponseWriter, err error) {
	var invalid *service.ValidationError
	var conflict *service.ConflictError
	var external *service.ExternalError

	switch {
	case errors.As(err, &invalid):
		respond(w, http.StatusBadRequest, errorBody{Error: invalid.Message, Details: invalid.Field})
	case errors.As(err, &conflict):
		respond(w, http.StatusBadRequest, errorBody{Error: conflict.Message})
	case errors.Is(err, service.ErrNotFound):
		respond(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &external):
		respond(w, http.StatusBadRequest, errorBody{Error: "payment could not be settled", Details: external.Reason})
	default:
		log.Errorf("Internal error handling request: %s", err)
		respond(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &service.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
