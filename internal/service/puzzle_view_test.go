package service

import (
	"chessrush/internal/model"
	"encoding/json"
	"strings"
	"testing"
)

func testPuzzle() *model.Puzzle {
	moves := openingStats()
	return &model.Puzzle{
		FEN:          startFEN,
		SideToMove:   model.White,
		Moves:        Normalize(model.White, totalsOf(moves), moves).Moves,
		CorrectMoves: []string{"e2e4", "d2d4"},
	}
}

func TestPublicViewHidesAnswers(t *testing.T) {
	p := testPuzzle()

	view := ToPublicView(p)

	if view.FEN != p.FEN {
		t.Fatalf("FEN = %q, want %q", view.FEN, p.FEN)
	}
	if len(view.Moves) != len(p.Moves) {
		t.Fatalf("view has %d moves, puzzle has %d", len(view.Moves), len(p.Moves))
	}
	for i, m := range view.Moves {
		if m.UCI != p.Moves[i].UCI || m.SAN != p.Moves[i].SAN {
			t.Fatalf("move %d = %+v, want %s/%s", i, m, p.Moves[i].UCI, p.Moves[i].SAN)
		}
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"correct", "play_rate", "win", "white", "draws", "decisions"} {
		if strings.Contains(strings.ToLower(string(raw)), `"`+field) {
			t.Fatalf("public view leaks field %q: %s", field, raw)
		}
	}
}

func TestEvaluateSubmission(t *testing.T) {
	p := testPuzzle()

	cases := []struct {
		move    string
		correct bool
	}{
		{"e2e4", true},
		{"d2d4", true},
		{"a2a4", false},
		{"g1f3", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.move, func(t *testing.T) {
			v := EvaluateSubmission(p, tc.move)
			if v.Correct != tc.correct {
				t.Fatalf("Correct = %v, want %v", v.Correct, tc.correct)
			}
			if !sameStrings(v.CorrectMoves, p.CorrectMoves) {
				t.Fatalf("verdict must reveal the full answer, got %v", v.CorrectMoves)
			}
		})
	}
}

func TestEvaluateSubmissionCopiesAnswer(t *testing.T) {
	p := testPuzzle()
	v := EvaluateSubmission(p, "e2e4")
	v.CorrectMoves[0] = "tampered"

	if p.CorrectMoves[0] != "e2e4" {
		t.Fatal("verdict must not alias the puzzle's answer")
	}
}
