package entrant

import "context"

// LivesUpdate carries one entrant's recomputed standing after an outcome.
type LivesUpdate struct {
	UserID         string
	LivesRemaining int
	Status         Status
}

// Repository exposes entrant persistence operations.
type Repository interface {
	GetByCompetitionAndUser(ctx context.Context, competitionID, userID string) (Entrant, bool, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Entrant, error)
	Create(ctx context.Context, item Entrant) error
	// ApplyFixtureOutcomes writes the lives/status updates computed for a
	// resolved fixture and stamps the fixture processed, all in one
	// transaction. It returns false without writing anything when the
	// fixture was already processed (idempotence guard).
	ApplyFixtureOutcomes(ctx context.Context, competitionID, fixtureID string, updates []LivesUpdate) (bool, error)
	// ApplyRoundMisses is the missed-pick analogue, guarded by the round's
	// processed marker.
	ApplyRoundMisses(ctx context.Context, competitionID, roundID string, updates []LivesUpdate) (bool, error)
	// Reinstate is the organiser override that returns an eliminated
	// entrant to play with the given lives budget.
	Reinstate(ctx context.Context, competitionID, userID string, lives int) (Entrant, error)
}
