package audit

import "time"

// Action identifies what an audit entry records.
type Action string

const (
	ActionPickSet            Action = "pick.set"
	ActionPickChanged        Action = "pick.changed"
	ActionPickAdminOverride  Action = "pick.admin_override"
	ActionRoundLockTimeSet   Action = "round.lock_time_set"
	ActionFixtureResultSet   Action = "fixture.result_set"
	ActionEntrantEliminated  Action = "entrant.eliminated"
	ActionEntrantLifeLost    Action = "entrant.life_lost"
	ActionEntrantReinstated  Action = "entrant.reinstated"
	ActionAllowedTeamsReset  Action = "allowed_teams.reset"
	ActionCompetitionCreated Action = "competition.created"
	ActionEntrantJoined      Action = "entrant.joined"
)

// Entry is one write-only audit record. The engine never reads these back.
type Entry struct {
	CompetitionID string
	UserID        string
	ActorID       string
	Action        Action
	Detail        string
	CreatedAt     time.Time
}
