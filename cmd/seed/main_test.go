package main

import (
	"chessrush/internal/service"
	"testing"
)

func TestDeckPositionsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range deck {
		if seen[p.Key] {
			t.Errorf("duplicate key %q", p.Key)
		}
		seen[p.Key] = true

		if _, err := service.ParseFEN(p.FEN); err != nil {
			t.Errorf("%s: %v", p.Key, err)
		}
	}
}
