package service

import (
	"chessrush/internal/metrics"
	"chessrush/internal/model"
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// scoreEpsilon keeps the delta comparison inclusive under float rounding
const scoreEpsilon = 1e-9

// AcceptanceEngine decides which candidate moves count as correct
type AcceptanceEngine struct {
	log zerolog.Logger
	obs OracleObserver
}

// NewAcceptanceEngine creates an acceptance engine. obs may be nil.
func NewAcceptanceEngine(log zerolog.Logger, obs OracleObserver) *AcceptanceEngine {
	return &AcceptanceEngine{log: log, obs: obs}
}

// WinScore is the mover's wins plus half the draws, per game played
func WinScore(m model.MoveStatistic, side model.Color) float64 {
	games := m.Games()
	if games == 0 {
		return 0
	}
	return (float64(m.Wins(side)) + 0.5*float64(m.Draws)) / float64(games)
}

// Generate builds the internal puzzle for a position.
//
// Each move goes through the rules in order: sample-size filter, statistical
// dominance, then the oracle fallback. Only moves that reach the fallback are
// sent to the oracle, at most once each and concurrently. An oracle error or
// timeout counts as no opinion and never fails generation.
func (e *AcceptanceEngine) Generate(ctx context.Context, fen string, agg model.NormalizedAggregate, cfg model.AcceptanceConfig, oracle EvaluationOracle) (*model.Puzzle, error) {
	moves := agg.Moves
	if len(moves) == 0 {
		return nil, ErrNoData
	}

	decisions := make([]model.MoveDecision, len(moves))
	best := math.Inf(-1)
	for i, m := range moves {
		ws := WinScore(m.MoveStatistic, agg.SideToMove)
		decisions[i] = model.MoveDecision{UCI: m.UCI, WinScore: ws}
		if m.Games() >= cfg.MinSampleSize && ws > best {
			best = ws
		}
	}
	if math.IsInf(best, -1) {
		return nil, ErrNoSignificantMoves
	}

	threshold := best - cfg.WinScoreDelta
	var borderline []int
	for i, m := range moves {
		switch {
		case m.Games() < cfg.MinSampleSize:
			decisions[i].Rule = model.RuleRejectedSample
		case decisions[i].WinScore+scoreEpsilon >= threshold:
			decisions[i].Rule = model.RuleAcceptedStats
		case cfg.OracleEnabled && oracle != nil:
			borderline = append(borderline, i)
		default:
			decisions[i].Rule = model.RuleRejectedScore
		}
	}

	if len(borderline) > 0 {
		e.consultOracle(ctx, fen, decisions, borderline, cfg, oracle)
	}

	correct := make([]string, 0, len(moves))
	for _, d := range decisions {
		if d.Rule.Accepted() {
			correct = append(correct, d.UCI)
		}
	}

	e.log.Debug().
		Str("fen", fen).
		Int("candidates", len(moves)).
		Int("oracle_queries", len(borderline)).
		Strs("correct", correct).
		Float64("best_win_score", best).
		Msg("puzzle generated")

	return &model.Puzzle{
		FEN:          fen,
		SideToMove:   agg.SideToMove,
		Moves:        moves,
		CorrectMoves: correct,
		BestWinScore: best,
		Decisions:    decisions,
	}, nil
}

// consultOracle fills in the decisions for the borderline moves.
// Each goroutine writes only its own index.
func (e *AcceptanceEngine) consultOracle(ctx context.Context, fen string, decisions []model.MoveDecision, borderline []int, cfg model.AcceptanceConfig, oracle EvaluationOracle) {
	limit := cfg.OracleConcurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, i := range borderline {
		i := i
		g.Go(func() error {
			loss, ok := e.query(ctx, cfg.OracleTimeout, oracle, fen, decisions[i].UCI)
			switch {
			case !ok:
				decisions[i].Rule = model.RuleRejectedNoOpinion
			case loss <= cfg.MaxEvalLoss:
				decisions[i].EvalLoss = &loss
				decisions[i].Rule = model.RuleAcceptedEngine
			default:
				decisions[i].EvalLoss = &loss
				decisions[i].Rule = model.RuleRejectedEngine
			}
			return nil
		})
	}
	_ = g.Wait()
}

type oracleResult struct {
	loss float64
	ok   bool
	err  error
}

// query runs one oracle call under its own timeout. The timeout is enforced
// here as well, so an oracle that ignores its context cannot stall a puzzle.
func (e *AcceptanceEngine) query(ctx context.Context, timeout time.Duration, oracle EvaluationOracle, fen, uci string) (float64, bool) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	done := make(chan oracleResult, 1)
	go func() {
		loss, ok, err := oracle.Evaluate(callCtx, fen, uci)
		done <- oracleResult{loss: loss, ok: ok, err: err}
	}()

	var res oracleResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = oracleResult{err: callCtx.Err()}
	}

	outcome := metrics.OracleOpinion
	switch {
	case res.err != nil && (errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled)):
		outcome = metrics.OracleTimeout
	case res.err != nil:
		outcome = metrics.OracleError
	case !res.ok || math.IsNaN(res.loss):
		outcome = metrics.OracleNoOpinion
	}
	if e.obs != nil {
		e.obs.OracleQuery(outcome, time.Since(start))
	}

	if res.err != nil {
		e.log.Warn().Err(res.err).Str("fen", fen).Str("uci", uci).Str("outcome", outcome).Msg("oracle unavailable, treating as no opinion")
		return 0, false
	}
	if outcome != metrics.OracleOpinion {
		return 0, false
	}
	return res.loss, true
}
