package service

import (
	"chessrush/internal/model"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ParseFEN validates a FEN and returns its position
func ParseFEN(fen string) (*chess.Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// SideToMove returns the colour to play in pos
func SideToMove(pos *chess.Position) model.Color {
	if pos.Turn() == chess.Black {
		return model.Black
	}
	return model.White
}

// CheckLegalMove returns ErrIllegalMove unless uci is a legal move in pos
func CheckLegalMove(pos *chess.Position, uci string) error {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, m := range pos.ValidMoves() {
		if m.String() == uci {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrIllegalMove, uci)
}
