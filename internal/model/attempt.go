package model

import "time"

// Attempt is a persisted puzzle submission
type Attempt struct {
	ID           string    `json:"id" bson:"_id"`
	PlayerID     string    `json:"playerId" bson:"playerId"`
	FEN          string    `json:"fen" bson:"fen"`
	Move         string    `json:"move" bson:"move"`
	Correct      bool      `json:"correct" bson:"correct"`
	CorrectMoves []string  `json:"correctMoves" bson:"correctMoves"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// LeaderboardEntry is one row of the solved-puzzle leaderboard
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Solved   int    `json:"solved"`
	Rank     int    `json:"rank"`
}

// VerdictEvent is pushed to a player's event stream after a submission
type VerdictEvent struct {
	FEN          string   `json:"fen"`
	Move         string   `json:"move"`
	Correct      bool     `json:"correct"`
	CorrectMoves []string `json:"correctMoves"`
	Solved       int      `json:"solved,omitempty"`
}

// AttemptSummary aggregates a player's attempt history
type AttemptSummary struct {
	PlayerID string `json:"playerId" bson:"-"`
	Attempts int    `json:"attempts" bson:"attempts"`
	Correct  int    `json:"correct" bson:"correct"`
	Solved   int    `json:"solved" bson:"solved"`    // distinct positions answered correctly
	Rank     int    `json:"rank,omitempty" bson:"-"` // 0 when not on the leaderboard
}

// AttemptHistory is a player's summary plus their recent attempts
type AttemptHistory struct {
	Summary  *AttemptSummary `json:"summary"`
	Attempts []*Attempt      `json:"attempts"`
}
