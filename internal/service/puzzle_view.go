package service

import "chessrush/internal/model"

// ToPublicView strips the answer and all statistics from a puzzle.
// Every move is kept, in the puzzle's order.
func ToPublicView(p *model.Puzzle) model.PublicPuzzleView {
	moves := make([]model.PublicMove, len(p.Moves))
	for i, m := range p.Moves {
		moves[i] = model.PublicMove{UCI: m.UCI, SAN: m.SAN}
	}
	return model.PublicPuzzleView{
		FEN:   p.FEN,
		Moves: moves,
	}
}

// EvaluateSubmission checks a submitted move against the hidden answer and
// reveals the full answer. Legality is checked by the caller.
func EvaluateSubmission(p *model.Puzzle, uci string) model.SubmissionVerdict {
	correct := make([]string, len(p.CorrectMoves))
	copy(correct, p.CorrectMoves)
	return model.SubmissionVerdict{
		Correct:      p.IsCorrect(uci),
		CorrectMoves: correct,
	}
}
