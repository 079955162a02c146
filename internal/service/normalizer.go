package service

import (
	"chessrush/internal/model"
	"sort"
)

// Normalize converts raw explorer counts into rate-based move records.
//
// Play rates are shares of the position totals, not of the sum over moves,
// because the source usually returns only the top-N moves. Raw counts are kept
// on every record. The result is ordered by descending play rate; ties keep
// the source order.
func Normalize(side model.Color, totals model.PositionTotals, moves []model.MoveStatistic) model.NormalizedAggregate {
	totalGames := totals.Games()

	normalized := make([]model.NormalizedMove, 0, len(moves))
	for _, m := range moves {
		moveTotal := m.Games()

		normalized = append(normalized, model.NormalizedMove{
			MoveStatistic:   m,
			PlayRate:        ratio(moveTotal, totalGames),
			WhiteWinRate:    ratio(m.White, moveTotal),
			BlackWinRate:    ratio(m.Black, moveTotal),
			DrawRate:        ratio(m.Draws, moveTotal),
			MoverWinRate:    ratio(m.Wins(side), moveTotal),
			OpponentWinRate: ratio(m.Wins(side.Opponent()), moveTotal),
		})
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].PlayRate > normalized[j].PlayRate
	})

	return model.NormalizedAggregate{
		SideToMove: side,
		TotalGames: totalGames,
		Moves:      normalized,
	}
}

// ratio returns n/d, or 0 when d is 0
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
