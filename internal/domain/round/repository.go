package round

import (
	"context"
	"time"
)

// Repository exposes round persistence operations.
type Repository interface {
	GetByID(ctx context.Context, id string) (Round, bool, error)
	GetByCompetitionAndNumber(ctx context.Context, competitionID string, number int) (Round, bool, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Round, error)
	Create(ctx context.Context, item Round) error
	// UpdateLockTime sets the round's lock time and, when clearInviteCode is
	// true, clears the owning competition's invite code in the same
	// transaction.
	UpdateLockTime(ctx context.Context, id string, lockTime time.Time, clearInviteCode bool) (Round, error)
}
