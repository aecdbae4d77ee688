package eligibility

// AllowedTeam is one entry in a player's remaining eligible pool for a
// competition. The pool shrinks as picks consume teams and is restored when
// a pick changes or the pool is reset after exhaustion.
type AllowedTeam struct {
	CompetitionID string
	UserID        string
	TeamID        string
}

// ResetOutcome reports what CheckAndReset did to a player's pool.
type ResetOutcome struct {
	Reset          bool
	AvailableCount int
}
