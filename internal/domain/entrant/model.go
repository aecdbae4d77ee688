package entrant

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusOut    Status = "OUT"
)

// Entrant is one player's standing in one competition (the competition_user
// row). LivesRemaining never goes below zero; a loss at zero lives moves the
// entrant to StatusOut, which is terminal apart from organiser reinstatement.
type Entrant struct {
	CompetitionID  string
	UserID         string
	Status         Status
	LivesRemaining int
	Paid           bool
	PaidAt         *time.Time
	JoinedAt       time.Time
}

// Active reports whether the entrant is still in the game.
func (e Entrant) Active() bool {
	return e.Status == StatusActive
}

// ApplyLoss returns the entrant's state after one lost (or missed) pick.
func (e Entrant) ApplyLoss() Entrant {
	out := e
	if out.LivesRemaining > 0 {
		out.LivesRemaining--
		if out.LivesRemaining == 0 {
			out.Status = StatusOut
		}
		return out
	}
	out.Status = StatusOut
	return out
}
