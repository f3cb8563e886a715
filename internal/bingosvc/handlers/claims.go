package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
)

func (h *Handler) SubmitClaimHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claim, err := h.claims.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"claim":   claim,
	})
}

type resolveClaimRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (h *Handler) ResolveClaimHandler(w http.ResponseWriter, r *http.Request) {
	var req resolveClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claim, err := h.claims.Resolve(r.Context(), chi.URLParam(r, "claimID"), req.Action, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]*models.Claim{"claim": claim})
}

func (h *Handler) GameClaimsHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claims.GameClaims(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if claims == nil {
		claims = []*models.Claim{}
	}
	respond(w, http.StatusOK, map[string][]*models.Claim{"claims": claims})
}

func (h *Handler) GameWinnersHandler(w http.ResponseWriter, r *http.Request) {
	winners, err := h.claims.GameWinners(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if winners == nil {
		winners = []*models.Winner{}
	}
	respond(w, http.StatusOK, map[string][]*models.Winner{"winners": winners})
}

type markPaidRequest struct {
	GameID          string `json:"gameId"`
	TransactionHash string `json:"transactionHash"`
}

// MarkWinnerPaidHandler records the payout transaction for a verified winner.
func (h *Handler) MarkWinnerPaidHandler(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	winnerID := chi.URLParam(r, "winnerID")
	if err := h.claims.MarkWinnerPaid(r.Context(), winnerID, req.GameID, req.TransactionHash); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"winnerId": winnerID,
	})
}
