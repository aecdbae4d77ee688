package pick

import (
	"context"
	"errors"

	"github.com/noodev8/lmslocal/internal/domain/audit"
)

// ErrTeamUnavailable reports that the exchange's consume target was not in
// the player's allowed pool at commit time. A concurrent pick change can
// remove the team between the service's eligibility read and the write.
var ErrTeamUnavailable = errors.New("team not in allowed pool")

// Repository exposes pick persistence operations.
type Repository interface {
	GetByRoundAndUser(ctx context.Context, roundID, userID string) (Pick, bool, error)
	ListByRound(ctx context.Context, roundID string) ([]Pick, error)
	ListByCompetitionAndUser(ctx context.Context, competitionID, userID string) ([]Pick, error)
	// Save upserts the pick for (item.RoundID, item.UserID) and, when
	// exchange is non-nil, restores the previously picked team to the
	// player's allowed pool and consumes the new one. The previous pick is
	// re-read inside the same transaction as the write, so concurrent pick
	// changes cannot restore a stale team. The audit entry commits with the
	// pick; a failed audit write rolls the pick back.
	Save(ctx context.Context, item Pick, exchange *EligibilityExchange, entry audit.Entry) (Pick, error)
}

// EligibilityExchange describes the allowed-teams bookkeeping that must
// commit atomically with a pick write. The restored team is derived from the
// prior pick's short code via the competition's team list.
type EligibilityExchange struct {
	CompetitionID string
	TeamListID    string
	// ConsumeTeamID is removed from the player's allowed pool.
	ConsumeTeamID string
}
