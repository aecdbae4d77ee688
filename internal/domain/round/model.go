package round

import "time"

// Round is one cycle of fixtures sharing a lock time. Round numbers are
// 1-based and strictly increasing within a competition.
type Round struct {
	ID            string
	CompetitionID string
	Number        int
	LockTime      time.Time
	// ProcessedAt marks that the missed-pick sweep has run for this round.
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Locked derives the lock state from the given instant. Lock state is never
// stored; it is recomputed against the clock on every check so a lock-time
// change takes effect immediately.
func (r Round) Locked(now time.Time) bool {
	return !now.Before(r.LockTime)
}
