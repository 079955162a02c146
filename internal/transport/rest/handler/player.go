package handler

import (
	"chessrush/internal/model"
	"chessrush/internal/transport/rest/middleware"
	"context"
	"net/http"
	"strconv"
)

// Players is the player side of the service layer
type Players interface {
	Attempts(ctx context.Context, playerID string, limit int) (*model.AttemptHistory, error)
	Leaderboard(ctx context.Context, top int) ([]model.LeaderboardEntry, error)
}

// PlayerHandler handles player history and leaderboard endpoints
type PlayerHandler struct {
	playerSvc Players
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(playerSvc Players) *PlayerHandler {
	return &PlayerHandler{playerSvc: playerSvc}
}

// Attempts handles GET /v1/me/attempts
func (h *PlayerHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())
	if playerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	history, err := h.playerSvc.Attempts(r.Context(), playerID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Leaderboard handles GET /v1/leaderboard
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid top")
		return
	}

	entries, err := h.playerSvc.Leaderboard(r.Context(), top)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
	})
}

// intParam returns 0 when the parameter is absent
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
