package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/noodev8/lmslocal/internal/domain/eligibility"
)

type EligibilityRepository struct {
	mu sync.Mutex
	// pools is keyed by competitionID then userID.
	pools map[string]map[string]map[string]struct{}
}

func NewEligibilityRepository() *EligibilityRepository {
	return &EligibilityRepository{
		pools: make(map[string]map[string]map[string]struct{}),
	}
}

func (r *EligibilityRepository) ListTeamIDs(_ context.Context, competitionID, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.pool(competitionID, userID)
	out := make([]string, 0, len(pool))
	for id := range pool {
		out = append(out, id)
	}
	sort.Strings(out)

	return out, nil
}

func (r *EligibilityRepository) CountRemaining(_ context.Context, competitionID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pool(competitionID, userID)), nil
}

func (r *EligibilityRepository) Populate(_ context.Context, competitionID, userID string, teamIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.ensurePool(competitionID, userID)
	inserted := 0
	for _, id := range teamIDs {
		if _, exists := pool[id]; exists {
			continue
		}
		pool[id] = struct{}{}
		inserted++
	}

	return inserted, nil
}

func (r *EligibilityRepository) ResetIfExhausted(_ context.Context, competitionID, userID string, teamIDs []string) (eligibility.ResetOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.ensurePool(competitionID, userID)
	if len(pool) > 0 {
		return eligibility.ResetOutcome{Reset: false, AvailableCount: len(pool)}, nil
	}
	for _, id := range teamIDs {
		pool[id] = struct{}{}
	}

	return eligibility.ResetOutcome{Reset: true, AvailableCount: len(pool)}, nil
}

// restore and consume implement the pick repository's allowed-teams exchange
// under this repository's lock.
func (r *EligibilityRepository) restore(competitionID, userID, teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensurePool(competitionID, userID)[teamID] = struct{}{}
}

func (r *EligibilityRepository) consume(competitionID, userID, teamID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.pool(competitionID, userID)
	if _, ok := pool[teamID]; !ok {
		return false
	}
	delete(pool, teamID)

	return true
}

func (r *EligibilityRepository) pool(competitionID, userID string) map[string]struct{} {
	if users, ok := r.pools[competitionID]; ok {
		return users[userID]
	}
	return nil
}

func (r *EligibilityRepository) ensurePool(competitionID, userID string) map[string]struct{} {
	users, ok := r.pools[competitionID]
	if !ok {
		users = make(map[string]map[string]struct{})
		r.pools[competitionID] = users
	}
	pool, ok := users[userID]
	if !ok {
		pool = make(map[string]struct{})
		users[userID] = pool
	}
	return pool
}
