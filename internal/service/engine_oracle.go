package service

import (
	"chessrush/internal/cache"
	"chessrush/internal/engine"
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Analyser runs engine searches. *engine.Pool satisfies it.
type Analyser interface {
	Analyse(ctx context.Context, fen string, searchMoves ...string) (*engine.Analysis, error)
}

// EngineOracle measures a move's evaluation loss with a UCI engine: the
// unrestricted best score minus the score of a search restricted to the move.
type EngineOracle struct {
	engine Analyser
	roots  singleflight.Group
	log    zerolog.Logger
}

// NewEngineOracle creates an oracle backed by a UCI engine
func NewEngineOracle(a Analyser, log zerolog.Logger) *EngineOracle {
	return &EngineOracle{engine: a, log: log}
}

// Evaluate returns the loss in pawns. Concurrent calls for the same position
// share one root search.
func (o *EngineOracle) Evaluate(ctx context.Context, fen, uci string) (float64, bool, error) {
	v, err, _ := o.roots.Do(fen, func() (interface{}, error) {
		return o.engine.Analyse(ctx, fen)
	})
	if errors.Is(err, engine.ErrNoScore) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	best := v.(*engine.Analysis)

	if best.BestMove == uci {
		return 0, true, nil
	}

	restricted, err := o.engine.Analyse(ctx, fen, uci)
	if errors.Is(err, engine.ErrNoScore) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	loss := EvalLoss(best.Score, restricted.Score)
	o.log.Debug().
		Str("fen", fen).
		Str("uci", uci).
		Str("best", best.Score.String()).
		Str("move", restricted.Score.String()).
		Float64("loss", loss).
		Msg("engine evaluation")
	return loss, true, nil
}

// EvalLoss converts two side-to-move scores into a non-negative loss in pawns
func EvalLoss(best, move engine.Score) float64 {
	return math.Max(0, float64(best.Centipawns()-move.Centipawns())/100)
}

// CachedOracle remembers engine opinions in Redis. "No opinion" results and
// errors are never stored.
type CachedOracle struct {
	oracle EvaluationOracle
	cache  cache.EvalCache
	obs    CacheObserver
	log    zerolog.Logger
}

// NewCachedOracle wraps oracle with an evaluation cache. obs may be nil.
func NewCachedOracle(oracle EvaluationOracle, c cache.EvalCache, obs CacheObserver, log zerolog.Logger) *CachedOracle {
	return &CachedOracle{oracle: oracle, cache: c, obs: obs, log: log}
}

// Evaluate serves a cached loss or asks the wrapped oracle
func (o *CachedOracle) Evaluate(ctx context.Context, fen, uci string) (float64, bool, error) {
	loss, hit, err := o.cache.GetLoss(ctx, fen, uci)
	if err != nil {
		o.log.Warn().Err(err).Str("fen", fen).Str("uci", uci).Msg("eval cache read failed")
	}
	if hit {
		if o.obs != nil {
			o.obs.CacheHit("eval")
		}
		return loss, true, nil
	}
	if o.obs != nil {
		o.obs.CacheMiss("eval")
	}

	loss, ok, err := o.oracle.Evaluate(ctx, fen, uci)
	if err != nil || !ok || math.IsNaN(loss) {
		return loss, ok, err
	}
	if err := o.cache.SetLoss(ctx, fen, uci, loss); err != nil {
		o.log.Warn().Err(err).Str("fen", fen).Str("uci", uci).Msg("eval cache write failed")
	}
	return loss, true, nil
}
