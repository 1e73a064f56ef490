package entities

// TeamSide identifies one of the two teams in a match.
type TeamSide string

const (
	TeamHome TeamSide = "home"
	TeamAway TeamSide = "away"
)

// Score is a goal count pair.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Total returns the combined goal count.
func (s Score) Total() int {
	return s.Home + s.Away
}

// MatchResult is the authoritative final result delivered once per finished
// match by the external feed. HalfTime and the scorer tags are optional;
// markets that need them stay unsettled until the data is present.
type MatchResult struct {
	MatchID     int64     `json:"match_id"`
	FullTime    Score     `json:"full_time"`
	HalfTime    *Score    `json:"half_time,omitempty"`
	FirstScorer *TeamSide `json:"first_scorer,omitempty"`
	LastScorer  *TeamSide `json:"last_scorer,omitempty"`
}

// SecondHalf derives the second-half sub-score from full time and half time.
// Returns nil when no half-time score was recorded.
func (r *MatchResult) SecondHalf() *Score {
	if r.HalfTime == nil {
		return nil
	}
	return &Score{
		Home: r.FullTime.Home - r.HalfTime.Home,
		Away: r.FullTime.Away - r.HalfTime.Away,
	}
}

// Winner returns the full-time winning side, or nil on a draw.
func (r *MatchResult) Winner() *TeamSide {
	return winnerOf(r.FullTime)
}

func winnerOf(s Score) *TeamSide {
	switch {
	case s.Home > s.Away:
		side := TeamHome
		return &side
	case s.Away > s.Home:
		side := TeamAway
		return &side
	default:
		return nil
	}
}
