package handler

import (
	"chessrush/internal/model"
	"chessrush/internal/transport/rest/middleware"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Puzzles is the puzzle side of the service layer
type Puzzles interface {
	Opening(ctx context.Context, fen string, q model.ExplorerQuery) (*model.NormalizedAggregate, error)
	Puzzle(ctx context.Context, fen string, q model.ExplorerQuery) (*model.PublicPuzzleView, error)
	Submit(ctx context.Context, playerID, fen, move string, q model.ExplorerQuery) (*model.SubmissionVerdict, error)
	Positions(ctx context.Context) ([]*model.CuratedPosition, error)
}

// PuzzleHandler handles opening and puzzle endpoints
type PuzzleHandler struct {
	puzzleSvc Puzzles
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzleSvc Puzzles) *PuzzleHandler {
	return &PuzzleHandler{puzzleSvc: puzzleSvc}
}

// Opening handles GET /v1/opening
func (h *PuzzleHandler) Opening(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		writeError(w, http.StatusBadRequest, "missing fen")
		return
	}
	q, err := parseExplorerQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := h.puzzleSvc.Opening(r.Context(), fen, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// Puzzle handles GET /v1/puzzle
func (h *PuzzleHandler) Puzzle(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		writeError(w, http.StatusBadRequest, "missing fen")
		return
	}
	q, err := parseExplorerQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.puzzleSvc.Puzzle(r.Context(), fen, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /v1/puzzle/submit
func (h *PuzzleHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.MoveSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FEN == "" || req.Move == "" {
		writeError(w, http.StatusBadRequest, "fen and move are required")
		return
	}
	q, err := parseExplorerQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	playerID := middleware.GetPlayerID(r.Context())
	verdict, err := h.puzzleSvc.Submit(r.Context(), playerID, req.FEN, req.Move, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// Positions handles GET /v1/positions
func (h *PuzzleHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.puzzleSvc.Positions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// parseExplorerQuery reads the optional moves, speeds and ratings filters
func parseExplorerQuery(r *http.Request) (model.ExplorerQuery, error) {
	var q model.ExplorerQuery
	params := r.URL.Query()

	if raw := params.Get("moves"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("invalid moves %q", raw)
		}
		q.Moves = n
	}
	q.Speeds = splitList(params.Get("speeds"))
	for _, raw := range splitList(params.Get("ratings")) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid rating %q", raw)
		}
		q.Ratings = append(q.Ratings, n)
	}
	return q, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
