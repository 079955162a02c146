package model

// Color is the side to move in a position
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// PositionTotals are the position-level game counts reported by the statistics source.
// Counts are by absolute colour, not relative to the side to move.
type PositionTotals struct {
	White int `json:"white"`
	Draws int `json:"draws"`
	Black int `json:"black"`
}

// Games returns the total number of games at the position
func (t PositionTotals) Games() int {
	return t.White + t.Draws + t.Black
}

// MoveStatistic is the raw aggregate for one candidate move
type MoveStatistic struct {
	UCI           string `json:"uci"`
	SAN           string `json:"san"`
	White         int    `json:"white"`
	Draws         int    `json:"draws"`
	Black         int    `json:"black"`
	AverageRating int    `json:"averageRating,omitempty"`
}

// Games is the move's sample size
func (m MoveStatistic) Games() int {
	return m.White + m.Draws + m.Black
}

// Wins returns the number of games won by the given colour after this move
func (m MoveStatistic) Wins(c Color) int {
	if c == Black {
		return m.Black
	}
	return m.White
}

// NormalizedMove keeps the raw counts next to the derived rates so the
// acceptance rule can recompute win scores without a second fetch.
type NormalizedMove struct {
	MoveStatistic
	PlayRate        float64 `json:"play_rate"`
	WhiteWinRate    float64 `json:"white_win_rate"`
	BlackWinRate    float64 `json:"black_win_rate"`
	DrawRate        float64 `json:"draw_rate"`
	MoverWinRate    float64 `json:"mover_win_rate"`
	OpponentWinRate float64 `json:"opponent_win_rate"`
}

// NormalizedAggregate is the normalized view of one position's statistics
type NormalizedAggregate struct {
	SideToMove Color            `json:"side_to_move"`
	TotalGames int              `json:"total_games"`
	Moves      []NormalizedMove `json:"moves"`
	Opening    *Opening         `json:"opening,omitempty"`
}

// Opening names the ECO opening of a position, when the source knows it
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// ExplorerResponse is the raw statistics payload for a position
type ExplorerResponse struct {
	PositionTotals
	Moves   []MoveStatistic `json:"moves"`
	Opening *Opening        `json:"opening,omitempty"`
}

// ExplorerQuery narrows the games the statistics are drawn from
type ExplorerQuery struct {
	Moves   int      `json:"moves"`
	Speeds  []string `json:"speeds,omitempty"`  // e.g. "blitz", "rapid"
	Ratings []int    `json:"ratings,omitempty"` // rating buckets, e.g. 1800, 2000
}
