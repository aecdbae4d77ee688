package pick

import "time"

// Pick records one player's team choice for one round. At most one pick
// exists per (round, user); changing a pick replaces the row.
type Pick struct {
	ID        string
	RoundID   string
	UserID    string
	Team      string
	FixtureID string
	// SetByAdminID is non-nil when an organiser submitted the pick on the
	// player's behalf.
	SetByAdminID *string
	CreatedAt    time.Time
}
