package usecase

import "github.com/noodev8/lmslocal/internal/domain/competition"

// Authority is the actor's level for rule checks. Modelling this as one
// explicit value (instead of scattered admin booleans) keeps every override
// branch in the services auditable.
type Authority int

const (
	AuthorityPlayer Authority = iota
	AuthorityOrganiser
)

func resolveAuthority(actorID string, comp competition.Competition) Authority {
	if actorID != "" && actorID == comp.OrganiserID {
		return AuthorityOrganiser
	}
	return AuthorityPlayer
}
