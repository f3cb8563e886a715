package handlers

import (
	"net/http"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
)

type purchaseResponse struct {
	Success          bool     `json:"success"`
	GameToken        string   `json:"gameToken"`
	Transaction      string   `json:"transaction"`
	PaymentID        string   `json:"paymentId"`
	CardIDs          []string `json:"cardIds"`
	PrizePoolUpdated bool     `json:"prizePoolUpdated"`
}

// PurchaseHandler is the payment-gated card purchase endpoint. Without an
// X-Payment header it answers 402 with the challenge body and mirrored
// headers; with one it runs the full settlement flow.
func (h *Handler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	header := r.Header.Get("X-Payment")
	if header == "" {
		count := req.CardCount
		if count == 0 {
			count = len(req.Cards)
		}
		challenge := h.purchases.Challenge(count)

		w.Header().Set("X-Payment-Required", "true")
		w.Header().Set("X-Payment-Address", challenge.Requirements.Recipient)
		w.Header().Set("X-Payment-Amount", challenge.Requirements.MaxAmountRequired)
		w.Header().Set("X-Payment-Network", challenge.Network)
		w.Header().Set("X-Payment-Asset", challenge.Requirements.Asset)
		w.Header().Set("X-Facilitator-URL", challenge.PaymentInfo.Facilitator)
		respond(w, http.StatusPaymentRequired, challenge)
		return
	}

	result, err := h.purchases.Purchase(r.Context(), req, header)
	if err != nil {
		writeError(w, err)
		return
	}

	respond(w, http.StatusOK, purchaseResponse{
		Success:          true,
		GameToken:        result.GameToken,
		Transaction:      result.Transaction,
		PaymentID:        result.PaymentID,
		CardIDs:          result.CardIDs,
		PrizePoolUpdated: result.PrizePoolUpdated,
	})
}
