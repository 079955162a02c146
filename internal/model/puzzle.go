package model

import "time"

// AcceptanceConfig holds the tunables of the hybrid acceptance rule
type AcceptanceConfig struct {
	MinSampleSize     int           `json:"minSampleSize"`     // moves with fewer games are ignored
	WinScoreDelta     float64       `json:"winScoreDelta"`     // statistical tolerance from the best win score
	MaxEvalLoss       float64       `json:"maxEvalLoss"`       // pawns
	OracleEnabled     bool          `json:"oracleEnabled"`     // engine fallback on/off
	OracleTimeout     time.Duration `json:"oracleTimeout"`     // per oracle call
	OracleConcurrency int           `json:"oracleConcurrency"` // max in-flight oracle calls
}

// DefaultAcceptanceConfig returns the trainer's standard tuning
func DefaultAcceptanceConfig() AcceptanceConfig {
	return AcceptanceConfig{
		MinSampleSize:     500,
		WinScoreDelta:     0.02,
		MaxEvalLoss:       0.25,
		OracleEnabled:     true,
		OracleTimeout:     3 * time.Second,
		OracleConcurrency: 4,
	}
}

// DecisionRule records which branch of the acceptance rule settled a move
type DecisionRule string

const (
	RuleRejectedSample    DecisionRule = "rejected_sample"
	RuleAcceptedStats     DecisionRule = "accepted_statistics"
	RuleAcceptedEngine    DecisionRule = "accepted_engine"
	RuleRejectedEngine    DecisionRule = "rejected_engine"
	RuleRejectedNoOpinion DecisionRule = "rejected_no_opinion"
	RuleRejectedScore     DecisionRule = "rejected_score"
)

// Accepted reports whether the rule accepts the move
func (r DecisionRule) Accepted() bool {
	return r == RuleAcceptedStats || r == RuleAcceptedEngine
}

// MoveDecision explains the verdict for one candidate move. Internal only.
type MoveDecision struct {
	UCI      string       `json:"uci"`
	WinScore float64      `json:"winScore"`
	Rule     DecisionRule `json:"rule"`
	EvalLoss *float64     `json:"evalLoss,omitempty"` // set only when the oracle gave an opinion
}

// Puzzle is the internal puzzle, including the hidden answer
type Puzzle struct {
	FEN          string           `json:"fen"`
	SideToMove   Color            `json:"sideToMove"`
	Moves        []NormalizedMove `json:"moves"`
	CorrectMoves []string         `json:"correctMoves"` // in move order
	BestWinScore float64          `json:"bestWinScore"`
	Decisions    []MoveDecision   `json:"decisions"`
}

// IsCorrect reports whether uci is one of the accepted moves
func (p *Puzzle) IsCorrect(uci string) bool {
	for _, m := range p.CorrectMoves {
		if m == uci {
			return true
		}
	}
	return false
}

// PublicMove is a candidate move as shown before submission
type PublicMove struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
}

// PublicPuzzleView is the answer-free projection of a Puzzle
type PublicPuzzleView struct {
	FEN   string       `json:"fen"`
	Moves []PublicMove `json:"moves"`
}

// SubmissionVerdict is returned after a move is submitted. It reveals the answer.
type SubmissionVerdict struct {
	Correct      bool     `json:"correct"`
	CorrectMoves []string `json:"correct_moves"`
}

// MoveSubmission is the request body for submitting a move
type MoveSubmission struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}
