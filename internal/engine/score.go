package engine

import "fmt"

// MateScore is the centipawn value given to a mate in zero
const MateScore = 10000

// Score is an engine evaluation from the side to move's point of view.
// Exactly one of CP and Mate is set.
type Score struct {
	CP   *int `json:"cp,omitempty"`
	Mate *int `json:"mate,omitempty"` // moves to mate, negative when the side to move is mated
}

// Valid reports whether the engine produced a score
func (s Score) Valid() bool {
	return s.CP != nil || s.Mate != nil
}

// Centipawns folds mate scores onto the centipawn scale so that a faster
// mate always compares better than a slower one.
func (s Score) Centipawns() int {
	switch {
	case s.Mate != nil && *s.Mate > 0:
		return MateScore - *s.Mate
	case s.Mate != nil:
		// mate 0 is reported when the side to move is already mated
		return -MateScore - *s.Mate
	case s.CP != nil:
		return *s.CP
	}
	return 0
}

func (s Score) String() string {
	switch {
	case s.Mate != nil:
		return fmt.Sprintf("#%d", *s.Mate)
	case s.CP != nil:
		return fmt.Sprintf("%+.2f", float64(*s.CP)/100)
	}
	return "?"
}
