package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/models"
	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/bingosvc/service"
)

type createGameRequest struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
}

func (h *Handler) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.Create(r.Context(), req.Name, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"gameId": game.ID, "game": game})
}

// ListGamesHandler only answers the ?active=true form: the single live game
// or {"game": null}.
func (h *Handler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") != "true" {
		writeError(w, &service.ValidationError{Field: "active", Message: "only active=true is supported"})
		return
	}

	game, err := h.games.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]*models.Game{"game": game})
}

func (h *Handler) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.Get(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]*models.Game{"game": game})
}

type gameActionRequest struct {
	Action        string `json:"action"`
	Number        int    `json:"number"`
	CalledNumbers []int  `json:"calledNumbers"`
}

// UpdateGameHandler dispatches the controller actions: call, uncall, toggle,
// sync and end.
func (h *Handler) UpdateGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	var req gameActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var game *models.Game
	var err error
	switch req.Action {
	case "call":
		game, err = h.games.Call(r.Context(), gameID, req.Number)
	case "uncall":
		game, err = h.games.Uncall(r.Context(), gameID)
	case "toggle":
		game, err = h.games.Toggle(r.Context(), gameID, req.Number)
	case "sync":
		game, err = h.games.SyncCalled(r.Context(), gameID, req.CalledNumbers)
	case "end":
		game, err = h.games.End(r.Context(), gameID)
	default:
		err = &service.ValidationError{Field: "action", Message: "action must be call, uncall, toggle, sync or end"}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"gameId":        game.ID,
		"status":        game.Status,
		"calledNumbers": game.CalledNumbers,
		"currentNumber": game.CurrentNumber,
	})
}
