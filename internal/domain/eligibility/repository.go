package eligibility

import "context"

// Repository exposes allowed-teams pool operations.
type Repository interface {
	ListTeamIDs(ctx context.Context, competitionID, userID string) ([]string, error)
	CountRemaining(ctx context.Context, competitionID, userID string) (int, error)
	// Populate seeds the pool with teamIDs. Existing rows are left alone
	// (insert-if-absent), making the call idempotent under races.
	Populate(ctx context.Context, competitionID, userID string, teamIDs []string) (int, error)
	// ResetIfExhausted atomically repopulates the pool with teamIDs when,
	// re-checked inside the transaction, the pool is empty. It returns
	// whether the reset happened and the pool size afterwards.
	ResetIfExhausted(ctx context.Context, competitionID, userID string, teamIDs []string) (ResetOutcome, error)
}
