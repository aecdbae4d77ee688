package fixture

import "context"

// Repository exposes fixture persistence operations.
type Repository interface {
	GetByID(ctx context.Context, id string) (Fixture, bool, error)
	ListByRound(ctx context.Context, roundID string) ([]Fixture, error)
	Create(ctx context.Context, item Fixture) error
	// SetResult records the stored result value for an unresolved fixture.
	// It returns ErrFixtureResolved when a result is already present.
	SetResult(ctx context.Context, id string, result string) (Fixture, error)
}
