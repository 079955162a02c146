package handler

import (
	"chessrush/internal/model"
	"chessrush/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// SessionIssuer opens anonymous player sessions
type SessionIssuer interface {
	NewSession() (*model.SessionResponse, error)
}

// AuthHandler handles session endpoints
type AuthHandler struct {
	authSvc SessionIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc SessionIssuer) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// CreateSession handles POST /v1/sessions
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.authSvc.NewSession()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to issue session")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFEN):
		writeError(w, http.StatusBadRequest, "invalid FEN")
	case errors.Is(err, service.ErrIllegalMove):
		writeError(w, http.StatusBadRequest, "illegal move")
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusNotFound, "no data for this position")
	case errors.Is(err, service.ErrUpstream):
		hlog.FromRequest(r).Warn().Err(err).Msg("statistics source failed")
		writeError(w, http.StatusBadGateway, "statistics source unavailable")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
