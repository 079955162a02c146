package service

import (
	"context"
	"time"
)

// EvaluationOracle gives a positional opinion on a candidate move.
//
// loss is how much worse the move is than the best move, in pawns, from the
// mover's point of view. ok == false means "no opinion": it is not a zero
// loss and callers must not treat it as one.
type EvaluationOracle interface {
	Evaluate(ctx context.Context, fen, uci string) (loss float64, ok bool, err error)
}

// OracleFunc adapts a function to EvaluationOracle
type OracleFunc func(ctx context.Context, fen, uci string) (float64, bool, error)

// Evaluate calls f
func (f OracleFunc) Evaluate(ctx context.Context, fen, uci string) (float64, bool, error) {
	return f(ctx, fen, uci)
}

// NoOpinionOracle never has an opinion. Used when no engine is configured.
type NoOpinionOracle struct{}

// Evaluate always returns no opinion
func (NoOpinionOracle) Evaluate(context.Context, string, string) (float64, bool, error) {
	return 0, false, nil
}

// OracleObserver receives one call per oracle query
type OracleObserver interface {
	OracleQuery(outcome string, d time.Duration)
}
