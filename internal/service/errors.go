package service

import (
	"errors"
	"fmt"
)

var (
	ErrNoData             = errors.New("no opening data available for this position")
	ErrNoSignificantMoves = fmt.Errorf("%w: no move meets the minimum sample size", ErrNoData)
	ErrInvalidFEN         = errors.New("invalid FEN string")
	ErrIllegalMove        = errors.New("illegal move")
	ErrUpstream           = errors.New("statistics source unavailable")
)
