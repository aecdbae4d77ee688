package competition

import "time"

type Status string

const (
	StatusSetup    Status = "SETUP"
	StatusUnlocked Status = "UNLOCKED"
	StatusLocked   Status = "LOCKED"
)

// Competition is the aggregate root: rounds, fixtures, picks, allowed teams
// and entrants all hang off one competition and never outlive it.
type Competition struct {
	ID             string
	Name           string
	Status         Status
	OrganiserID    string
	TeamListID     string
	LivesPerPlayer int
	NoTeamTwice    bool
	// InviteCode is cleared (set to nil) once round 1 locks, which closes
	// registration for good.
	InviteCode *string
	CreatedAt  time.Time
}

// RegistrationOpen reports whether new entrants may still join.
func (c Competition) RegistrationOpen() bool {
	return c.InviteCode != nil && *c.InviteCode != ""
}
