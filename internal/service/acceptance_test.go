package service

import (
	"chessrush/internal/metrics"
	"chessrush/internal/model"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// stubOracle answers from a fixed table and records which moves it was asked about
type stubOracle struct {
	mu     sync.Mutex
	losses map[string]float64
	errs   map[string]error
	asked  []string
}

func (o *stubOracle) Evaluate(ctx context.Context, fen, uci string) (float64, bool, error) {
	o.mu.Lock()
	o.asked = append(o.asked, uci)
	o.mu.Unlock()
	if err, ok := o.errs[uci]; ok {
		return 0, false, err
	}
	loss, ok := o.losses[uci]
	return loss, ok, nil
}

func (o *stubOracle) wasAsked(uci string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, a := range o.asked {
		if a == uci {
			return true
		}
	}
	return false
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) OracleQuery(outcome string, d time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func generate(t *testing.T, moves []model.MoveStatistic, cfg model.AcceptanceConfig, oracle EvaluationOracle) *model.Puzzle {
	t.Helper()
	agg := Normalize(model.White, totalsOf(moves), moves)
	p, err := NewAcceptanceEngine(testLog, nil).Generate(context.Background(), startFEN, agg, cfg, oracle)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return p
}

func decisionFor(p *model.Puzzle, uci string) model.MoveDecision {
	for _, d := range p.Decisions {
		if d.UCI == uci {
			return d
		}
	}
	return model.MoveDecision{}
}

func TestGenerateHybridLogicWithoutOracle(t *testing.T) {
	cfg := model.DefaultAcceptanceConfig()
	cfg.OracleEnabled = false

	p := generate(t, openingStats(), cfg, &stubOracle{})

	if want := []string{"e2e4", "d2d4"}; !sameStrings(p.CorrectMoves, want) {
		t.Fatalf("correct = %v, want %v", p.CorrectMoves, want)
	}
	if r := decisionFor(p, "g1f3").Rule; r != model.RuleRejectedSample {
		t.Fatalf("g1f3 rule = %s, want %s", r, model.RuleRejectedSample)
	}
	if r := decisionFor(p, "a2a4").Rule; r != model.RuleRejectedScore {
		t.Fatalf("a2a4 rule = %s, want %s", r, model.RuleRejectedScore)
	}
}

func TestGenerateOracleFallbackAcceptsRareStrongMove(t *testing.T) {
	moves := append(openingStats(), statFromRates("h2h4", "h4", 0.48, 0.30, 3000))
	oracle := &stubOracle{losses: map[string]float64{"h2h4": 0.10, "a2a4": 1.4}}

	p := generate(t, moves, model.DefaultAcceptanceConfig(), oracle)

	if !p.IsCorrect("h2h4") {
		t.Fatalf("h2h4 should be accepted by the engine fallback, correct = %v", p.CorrectMoves)
	}
	d := decisionFor(p, "h2h4")
	if d.Rule != model.RuleAcceptedEngine || d.EvalLoss == nil || *d.EvalLoss != 0.10 {
		t.Fatalf("unexpected h2h4 decision: %+v", d)
	}
	if r := decisionFor(p, "a2a4").Rule; r != model.RuleRejectedEngine {
		t.Fatalf("a2a4 rule = %s, want %s", r, model.RuleRejectedEngine)
	}
	if want := []string{"e2e4", "d2d4", "h2h4"}; !sameStrings(p.CorrectMoves, want) {
		t.Fatalf("correct = %v, want %v", p.CorrectMoves, want)
	}
}

func TestGenerateOracleOnlyForBorderlineMoves(t *testing.T) {
	moves := append(openingStats(), statFromRates("h2h4", "h4", 0.48, 0.30, 3000))
	oracle := &stubOracle{losses: map[string]float64{"e2e4": 0, "d2d4": 0, "g1f3": 0, "h2h4": 0.5}}

	generate(t, moves, model.DefaultAcceptanceConfig(), oracle)

	for _, uci := range []string{"e2e4", "d2d4", "g1f3"} {
		if oracle.wasAsked(uci) {
			t.Fatalf("oracle must not be queried for %s", uci)
		}
	}
	for _, uci := range []string{"a2a4", "h2h4"} {
		if !oracle.wasAsked(uci) {
			t.Fatalf("oracle should be queried for %s", uci)
		}
	}
	if len(oracle.asked) != 2 {
		t.Fatalf("oracle asked %d times, want 2", len(oracle.asked))
	}
}

func TestGenerateSampleFilterBeatsDominantScore(t *testing.T) {
	moves := []model.MoveStatistic{
		statFromRates("e2e4", "e4", 0.50, 0.20, 2000),
		statFromRates("b1c3", "Nc3", 0.95, 0.05, 40), // dominant but tiny sample
	}
	oracle := &stubOracle{losses: map[string]float64{"b1c3": 0}}

	p := generate(t, moves, model.DefaultAcceptanceConfig(), oracle)

	if p.IsCorrect("b1c3") {
		t.Fatal("a move below the sample threshold must never be accepted")
	}
	if oracle.wasAsked("b1c3") {
		t.Fatal("oracle must not be queried for a filtered move")
	}
	if p.BestWinScore != WinScore(moves[0], model.White) {
		t.Fatalf("best win score must ignore filtered moves, got %v", p.BestWinScore)
	}
}

func TestGenerateDeltaBoundaryIsInclusive(t *testing.T) {
	moves := []model.MoveStatistic{
		{UCI: "e2e4", White: 60, Draws: 20, Black: 20}, // 0.70
		{UCI: "d2d4", White: 58, Draws: 20, Black: 22}, // 0.68
		{UCI: "c2c4", White: 57, Draws: 20, Black: 23}, // 0.67
	}
	cfg := model.DefaultAcceptanceConfig()
	cfg.MinSampleSize = 100
	cfg.OracleEnabled = false

	p := generate(t, moves, cfg, nil)

	if want := []string{"e2e4", "d2d4"}; !sameStrings(p.CorrectMoves, want) {
		t.Fatalf("correct = %v, want %v", p.CorrectMoves, want)
	}
}

func TestGenerateUsesSideToMove(t *testing.T) {
	// black to move: black wins are the mover's wins
	moves := []model.MoveStatistic{
		{UCI: "e7e5", SAN: "e5", White: 300, Draws: 300, Black: 400},
		{UCI: "c7c5", SAN: "c5", White: 450, Draws: 250, Black: 300},
	}
	cfg := model.DefaultAcceptanceConfig()
	cfg.OracleEnabled = false

	agg := Normalize(model.Black, totalsOf(moves), moves)
	p, err := NewAcceptanceEngine(testLog, nil).Generate(context.Background(), "fen-b", agg, cfg, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if want := []string{"e7e5"}; !sameStrings(p.CorrectMoves, want) {
		t.Fatalf("correct = %v, want %v", p.CorrectMoves, want)
	}
	if p.SideToMove != model.Black {
		t.Fatalf("side = %s, want black", p.SideToMove)
	}
}

func TestGenerateOracleFailuresAreNoOpinion(t *testing.T) {
	moves := append(openingStats(), statFromRates("h2h4", "h4", 0.48, 0.30, 3000))
	oracle := &stubOracle{
		losses: map[string]float64{},
		errs:   map[string]error{"h2h4": errors.New("engine crashed")},
	}
	obs := &recordingObserver{}

	agg := Normalize(model.White, totalsOf(moves), moves)
	p, err := NewAcceptanceEngine(testLog, obs).Generate(context.Background(), startFEN, agg, model.DefaultAcceptanceConfig(), oracle)
	if err != nil {
		t.Fatalf("an oracle failure must not fail generation: %v", err)
	}

	if p.IsCorrect("h2h4") || p.IsCorrect("a2a4") {
		t.Fatalf("moves without an opinion must be rejected, correct = %v", p.CorrectMoves)
	}
	if r := decisionFor(p, "h2h4").Rule; r != model.RuleRejectedNoOpinion {
		t.Fatalf("h2h4 rule = %s, want %s", r, model.RuleRejectedNoOpinion)
	}

	seen := map[string]int{}
	for _, o := range obs.outcomes {
		seen[o]++
	}
	if seen[metrics.OracleError] != 1 || seen[metrics.OracleNoOpinion] != 1 {
		t.Fatalf("unexpected observed outcomes: %v", obs.outcomes)
	}
}

func TestGenerateOracleTimeout(t *testing.T) {
	moves := append(openingStats(), statFromRates("h2h4", "h4", 0.48, 0.30, 3000))
	release := make(chan struct{})
	defer close(release)

	// ignores its context on purpose
	oracle := OracleFunc(func(ctx context.Context, fen, uci string) (float64, bool, error) {
		<-release
		return 0, true, nil
	})
	cfg := model.DefaultAcceptanceConfig()
	cfg.OracleTimeout = 20 * time.Millisecond

	start := time.Now()
	p := generate(t, moves, cfg, oracle)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("generation took %v, the per-call timeout was not enforced", elapsed)
	}
	if want := []string{"e2e4", "d2d4"}; !sameStrings(p.CorrectMoves, want) {
		t.Fatalf("correct = %v, want %v", p.CorrectMoves, want)
	}
}

func TestGenerateOracleConcurrencyLimit(t *testing.T) {
	var moves []model.MoveStatistic
	moves = append(moves, statFromRates("e2e4", "e4", 0.60, 0.20, 5000))
	for _, uci := range []string{"a2a3", "a2a4", "b2b3", "b2b4", "g2g3", "g2g4", "h2h3", "h2h4"} {
		moves = append(moves, statFromRates(uci, uci, 0.40, 0.20, 1000))
	}

	var inflight, peak int32
	oracle := OracleFunc(func(ctx context.Context, fen, uci string) (float64, bool, error) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return 0.1, true, nil
	})
	cfg := model.DefaultAcceptanceConfig()
	cfg.OracleConcurrency = 3

	p := generate(t, moves, cfg, oracle)

	if len(p.CorrectMoves) != len(moves) {
		t.Fatalf("all moves should be accepted, got %v", p.CorrectMoves)
	}
	if peak > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", peak)
	}
	// accepted order follows move order regardless of completion order
	if p.CorrectMoves[0] != "e2e4" || p.CorrectMoves[1] != "a2a3" {
		t.Fatalf("unexpected order: %v", p.CorrectMoves)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	moves := append(openingStats(), statFromRates("h2h4", "h4", 0.48, 0.30, 3000))
	oracle := &stubOracle{losses: map[string]float64{"h2h4": 0.10}}

	first := generate(t, moves, model.DefaultAcceptanceConfig(), oracle)
	second := generate(t, moves, model.DefaultAcceptanceConfig(), oracle)

	if !sameStrings(first.CorrectMoves, second.CorrectMoves) {
		t.Fatalf("non-deterministic result: %v vs %v", first.CorrectMoves, second.CorrectMoves)
	}
}

func TestGenerateErrors(t *testing.T) {
	engine := NewAcceptanceEngine(testLog, nil)
	cfg := model.DefaultAcceptanceConfig()

	_, err := engine.Generate(context.Background(), startFEN, model.NormalizedAggregate{}, cfg, nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("empty move list: err = %v, want ErrNoData", err)
	}

	small := []model.MoveStatistic{{UCI: "e2e4", White: 3, Draws: 1, Black: 1}}
	_, err = engine.Generate(context.Background(), startFEN, Normalize(model.White, totalsOf(small), small), cfg, nil)
	if !errors.Is(err, ErrNoSignificantMoves) || !errors.Is(err, ErrNoData) {
		t.Fatalf("insignificant moves: err = %v, want ErrNoSignificantMoves wrapping ErrNoData", err)
	}
}

func TestWinScore(t *testing.T) {
	m := model.MoveStatistic{White: 55, Draws: 25, Black: 20}
	if got := WinScore(m, model.White); got != 0.675 {
		t.Fatalf("white win score = %v, want 0.675", got)
	}
	if got := WinScore(m, model.Black); got != 0.325 {
		t.Fatalf("black win score = %v, want 0.325", got)
	}
	if got := WinScore(model.MoveStatistic{}, model.White); got != 0 {
		t.Fatalf("empty move win score = %v, want 0", got)
	}
}
