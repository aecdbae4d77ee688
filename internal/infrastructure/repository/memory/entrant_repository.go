package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/entrant"
)

type EntrantRepository struct {
	mu       sync.Mutex
	items    map[string]entrant.Entrant
	fixtures *FixtureRepository
	rounds   *RoundRepository
}

func NewEntrantRepository(fixtures *FixtureRepository, rounds *RoundRepository) *EntrantRepository {
	return &EntrantRepository{
		items:    make(map[string]entrant.Entrant),
		fixtures: fixtures,
		rounds:   rounds,
	}
}

func (r *EntrantRepository) GetByCompetitionAndUser(_ context.Context, competitionID, userID string) (entrant.Entrant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.items[entrantKey(competitionID, userID)]
	if !ok {
		return entrant.Entrant{}, false, nil
	}

	return ent, true, nil
}

func (r *EntrantRepository) ListByCompetition(_ context.Context, competitionID string) ([]entrant.Entrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entrant.Entrant, 0, len(r.items))
	for _, ent := range r.items {
		if ent.CompetitionID == competitionID {
			out = append(out, ent)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})

	return out, nil
}

func (r *EntrantRepository) Create(_ context.Context, item entrant.Entrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entrantKey(item.CompetitionID, item.UserID)
	if _, exists := r.items[key]; exists {
		return fmt.Errorf("entrant %s already in competition %s", item.UserID, item.CompetitionID)
	}
	r.items[key] = item

	return nil
}

func (r *EntrantRepository) ApplyFixtureOutcomes(_ context.Context, competitionID, fixtureID string, updates []entrant.LivesUpdate) (bool, error) {
	// The processed stamp doubles as the claim: whoever stamps first writes.
	if !r.fixtures.markProcessed(fixtureID, time.Now().UTC()) {
		return false, nil
	}

	r.applyUpdates(competitionID, updates)

	return true, nil
}

func (r *EntrantRepository) ApplyRoundMisses(_ context.Context, competitionID, roundID string, updates []entrant.LivesUpdate) (bool, error) {
	if !r.rounds.markProcessed(roundID, time.Now().UTC()) {
		return false, nil
	}

	r.applyUpdates(competitionID, updates)

	return true, nil
}

func (r *EntrantRepository) Reinstate(_ context.Context, competitionID, userID string, lives int) (entrant.Entrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entrantKey(competitionID, userID)
	ent, ok := r.items[key]
	if !ok {
		return entrant.Entrant{}, fmt.Errorf("entrant %s not in competition %s", userID, competitionID)
	}
	ent.Status = entrant.StatusActive
	ent.LivesRemaining = lives
	r.items[key] = ent

	return ent, nil
}

func (r *EntrantRepository) applyUpdates(competitionID string, updates []entrant.LivesUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		key := entrantKey(competitionID, update.UserID)
		ent, ok := r.items[key]
		if !ok {
			continue
		}
		ent.LivesRemaining = update.LivesRemaining
		ent.Status = update.Status
		r.items[key] = ent
	}
}

func entrantKey(competitionID, userID string) string {
	return competitionID + "|" + userID
}
