package service

import (
	"chessrush/internal/model"
	"io"
	"math"

	"github.com/rs/zerolog"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var testLog = zerolog.New(io.Discard)

// statFromRates builds a raw move record from white-win and draw rates
func statFromRates(uci, san string, white, draw float64, games int) model.MoveStatistic {
	w := int(math.Round(white * float64(games)))
	d := int(math.Round(draw * float64(games)))
	return model.MoveStatistic{UCI: uci, SAN: san, White: w, Draws: d, Black: games - w - d}
}

// openingStats mirrors the trainer's reference example for the start position
func openingStats() []model.MoveStatistic {
	return []model.MoveStatistic{
		statFromRates("e2e4", "e4", 0.55, 0.25, 12000),
		statFromRates("d2d4", "d4", 0.54, 0.26, 9000),
		statFromRates("g1f3", "Nf3", 0.50, 0.30, 200),
		statFromRates("a2a4", "a4", 0.40, 0.20, 5000),
	}
}

func totalsOf(moves []model.MoveStatistic) model.PositionTotals {
	var t model.PositionTotals
	for _, m := range moves {
		t.White += m.White
		t.Draws += m.Draws
		t.Black += m.Black
	}
	return t
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
