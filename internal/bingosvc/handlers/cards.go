package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
)

// GenerateCardsHandler previews fresh unpaid cards; nothing is persisted
// until they are purchased.
func (h *Handler) GenerateCardsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, _ := strconv.Atoi(q.Get("count"))
	mode := q.Get("mode")
	if mode == "" {
		mode = models.Mode75
	}

	cards, err := h.cards.Generate(count, mode, q.Get("title"))
	if err != nil {
		writeError(w, &service.ValidationError{Field: "mode", Message: err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string][]*models.BingoCard{"cards": cards})
}

// GetCardHandler returns a card, optionally verified against a called list
// passed as ?calledNumbers=[1,2,3]&pattern=line.
func (h *Handler) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	q := r.URL.Query()

	raw := q.Get("calledNumbers")
	if raw == "" {
		card, err := h.cards.Get(r.Context(), cardID)
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]*models.BingoCard{"card": card})
		return
	}

	called, err := parseNumberList(raw)
	if err != nil {
		writeError(w, &service.ValidationError{Field: "calledNumbers", Message: err.Error()})
		return
	}

	card, verification, err := h.cards.Verify(r.Context(), cardID, called, q.Get("pattern"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"card":         card,
		"verification": verification,
	})
}

// MyCardsHandler lists the cards owned by the wallet in the access token.
func (h *Handler) MyCardsHandler(w http.ResponseWriter, r *http.Request) {
	wallet := walletFromToken(r)
	if wallet == "" {
		respond(w, http.StatusUnauthorized, errorBody{Error: "missing wallet claim"})
		return
	}

	cards, err := h.cards.ListByOwner(r.Context(), wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string][]*models.BingoCard{"cards": cards})
}

// parseNumberList accepts either a JSON array ("[1,2,3]") or a comma list
// ("1,2,3").
func parseNumberList(raw string) ([]int, error) {
	if strings.HasPrefix(raw, "[") {
		var out []int
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
