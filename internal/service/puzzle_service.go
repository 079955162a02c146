package service

import (
	"chessrush/internal/cache"
	"chessrush/internal/model"
	"chessrush/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Puzzle outcomes reported to the observer
const (
	OutcomeGenerated = "generated"
	OutcomeNoData    = "no_data"
	OutcomeError     = "error"
)

const (
	defaultAttemptLimit = 20
	maxAttemptLimit     = 100
	defaultTop          = 10
	maxTop              = 100
)

// PuzzleObserver receives puzzle and submission counts
type PuzzleObserver interface {
	PuzzleGenerated(outcome string)
	Submission(correct bool)
}

// PuzzleService ties the statistics source, the acceptance rule and the
// player-facing stores together
type PuzzleService struct {
	source      StatsSource
	acceptance  *AcceptanceEngine
	oracle      EvaluationOracle
	cfg         model.AcceptanceConfig
	moves       int
	attempts    repository.AttemptRepo
	positions   repository.PositionRepo
	leaderboard cache.LeaderboardCache
	broadcaster Broadcaster
	obs         PuzzleObserver
	log         zerolog.Logger
}

// NewPuzzleService creates a new puzzle service. moves is the default
// number of candidate moves requested from the source.
func NewPuzzleService(
	source StatsSource,
	acceptance *AcceptanceEngine,
	oracle EvaluationOracle,
	cfg model.AcceptanceConfig,
	moves int,
	attempts repository.AttemptRepo,
	positions repository.PositionRepo,
	leaderboard cache.LeaderboardCache,
	log zerolog.Logger,
) *PuzzleService {
	if oracle == nil {
		oracle = NoOpinionOracle{}
	}
	return &PuzzleService{
		source:      source,
		acceptance:  acceptance,
		oracle:      oracle,
		cfg:         cfg,
		moves:       moves,
		attempts:    attempts,
		positions:   positions,
		leaderboard: leaderboard,
		log:         log,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PuzzleService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetObserver sets the metrics observer
func (s *PuzzleService) SetObserver(obs PuzzleObserver) {
	s.obs = obs
}

// Opening returns the normalized statistics for a position
func (s *PuzzleService) Opening(ctx context.Context, fen string, q model.ExplorerQuery) (*model.NormalizedAggregate, error) {
	fen = strings.TrimSpace(fen)
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return s.normalized(ctx, fen, SideToMove(pos), q)
}

func (s *PuzzleService) normalized(ctx context.Context, fen string, side model.Color, q model.ExplorerQuery) (*model.NormalizedAggregate, error) {
	if q.Moves <= 0 {
		q.Moves = s.moves
	}
	resp, err := s.source.Fetch(ctx, fen, q)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Moves) == 0 {
		return nil, ErrNoData
	}

	agg := Normalize(side, resp.PositionTotals, resp.Moves)
	agg.Opening = resp.Opening
	return &agg, nil
}

// Puzzle returns the public view of the puzzle for a position
func (s *PuzzleService) Puzzle(ctx context.Context, fen string, q model.ExplorerQuery) (*model.PublicPuzzleView, error) {
	fen = strings.TrimSpace(fen)
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	p, err := s.generate(ctx, fen, SideToMove(pos), q)
	if err != nil {
		return nil, err
	}
	view := ToPublicView(p)
	return &view, nil
}

func (s *PuzzleService) generate(ctx context.Context, fen string, side model.Color, q model.ExplorerQuery) (*model.Puzzle, error) {
	agg, err := s.normalized(ctx, fen, side, q)
	if err == nil {
		var p *model.Puzzle
		p, err = s.acceptance.Generate(ctx, fen, *agg, s.cfg, s.oracle)
		if err == nil {
			s.observePuzzle(OutcomeGenerated)
			return p, nil
		}
	}

	if errors.Is(err, ErrNoData) {
		s.observePuzzle(OutcomeNoData)
	} else {
		s.observePuzzle(OutcomeError)
	}
	return nil, err
}

// Submit checks a move against the regenerated puzzle. With a player id the
// attempt is recorded, the leaderboard updated and the player notified;
// failures there are logged and do not change the verdict.
func (s *PuzzleService) Submit(ctx context.Context, playerID, fen, move string, q model.ExplorerQuery) (*model.SubmissionVerdict, error) {
	fen = strings.TrimSpace(fen)
	move = strings.ToLower(strings.TrimSpace(move))
	if move == "" {
		return nil, fmt.Errorf("%w: empty", ErrIllegalMove)
	}

	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	if err := CheckLegalMove(pos, move); err != nil {
		return nil, err
	}

	p, err := s.generate(ctx, fen, SideToMove(pos), q)
	if err != nil {
		return nil, err
	}
	verdict := EvaluateSubmission(p, move)
	if s.obs != nil {
		s.obs.Submission(verdict.Correct)
	}

	if playerID != "" {
		s.record(ctx, playerID, fen, move, verdict)
	}
	return &verdict, nil
}

func (s *PuzzleService) record(ctx context.Context, playerID, fen, move string, verdict model.SubmissionVerdict) {
	log := s.log.With().Str("player_id", playerID).Str("fen", fen).Logger()

	if s.attempts != nil {
		attempt := &model.Attempt{
			PlayerID:     playerID,
			FEN:          fen,
			Move:         move,
			Correct:      verdict.Correct,
			CorrectMoves: verdict.CorrectMoves,
		}
		if err := s.attempts.Create(ctx, attempt); err != nil {
			log.Error().Err(err).Msg("failed to record attempt")
		}
	}

	solved := 0
	if verdict.Correct && s.leaderboard != nil {
		n, err := s.leaderboard.IncrementSolved(ctx, playerID)
		if err != nil {
			log.Error().Err(err).Msg("failed to update leaderboard")
		}
		solved = n
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToPlayer(playerID, EventVerdict, model.VerdictEvent{
			FEN:          fen,
			Move:         move,
			Correct:      verdict.Correct,
			CorrectMoves: verdict.CorrectMoves,
			Solved:       solved,
		})
	}
}

// Attempts returns the player's summary and most recent attempts
func (s *PuzzleService) Attempts(ctx context.Context, playerID string, limit int) (*model.AttemptHistory, error) {
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	if limit > maxAttemptLimit {
		limit = maxAttemptLimit
	}

	summary, err := s.attempts.Summary(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize attempts: %w", err)
	}
	if s.leaderboard != nil {
		rank, err := s.leaderboard.GetRank(ctx, playerID)
		if err != nil {
			s.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to read leaderboard rank")
		} else if rank > 0 {
			summary.Rank = int(rank)
		}
	}
	attempts, err := s.attempts.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return &model.AttemptHistory{Summary: summary, Attempts: attempts}, nil
}

// Leaderboard returns the top players by solved puzzles
func (s *PuzzleService) Leaderboard(ctx context.Context, top int) ([]model.LeaderboardEntry, error) {
	if top <= 0 {
		top = defaultTop
	}
	if top > maxTop {
		top = maxTop
	}
	return s.leaderboard.GetTop(ctx, top)
}

// Positions returns the curated position deck
func (s *PuzzleService) Positions(ctx context.Context) ([]*model.CuratedPosition, error) {
	return s.positions.List(ctx)
}

func (s *PuzzleService) observePuzzle(outcome string) {
	if s.obs != nil {
		s.obs.PuzzleGenerated(outcome)
	}
}
