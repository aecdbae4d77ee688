package fixture

import "time"

// Fixture is a single scheduled match between two teams within a round.
// Result is nil until the organiser records it: afterwards it holds the
// winning team's short code, or ResultDraw.
type Fixture struct {
	ID          string
	RoundID     string
	HomeTeam    string
	AwayTeam    string
	HomeShort   string
	AwayShort   string
	KickoffAt   time.Time
	Result      *string
	// ProcessedAt marks that pick-outcome bookkeeping has consumed the
	// result; it guards against double-decrementing lives.
	ProcessedAt *time.Time
}

// Resolved reports whether a result has been recorded.
func (f Fixture) Resolved() bool {
	return f.Result != nil && *f.Result != ""
}

// Processed reports whether the elimination processor has consumed the
// result.
func (f Fixture) Processed() bool {
	return f.ProcessedAt != nil
}
