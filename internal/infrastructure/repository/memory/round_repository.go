package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/round"
)

type RoundRepository struct {
	mu           sync.RWMutex
	items        map[string]round.Round
	competitions *CompetitionRepository
}

func NewRoundRepository(competitions *CompetitionRepository, rounds []round.Round) *RoundRepository {
	items := make(map[string]round.Round, len(rounds))
	for _, rnd := range rounds {
		items[rnd.ID] = rnd
	}

	return &RoundRepository{
		items:        items,
		competitions: competitions,
	}
}

func (r *RoundRepository) GetByID(_ context.Context, id string) (round.Round, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rnd, ok := r.items[id]
	if !ok {
		return round.Round{}, false, nil
	}

	return rnd, true, nil
}

func (r *RoundRepository) GetByCompetitionAndNumber(_ context.Context, competitionID string, number int) (round.Round, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rnd := range r.items {
		if rnd.CompetitionID == competitionID && rnd.Number == number {
			return rnd, true, nil
		}
	}

	return round.Round{}, false, nil
}

func (r *RoundRepository) ListByCompetition(_ context.Context, competitionID string) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0, len(r.items))
	for _, rnd := range r.items {
		if rnd.CompetitionID == competitionID {
			out = append(out, rnd)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})

	return out, nil
}

func (r *RoundRepository) Create(_ context.Context, item round.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("round %s already exists", item.ID)
	}
	for _, rnd := range r.items {
		if rnd.CompetitionID == item.CompetitionID && rnd.Number == item.Number {
			return fmt.Errorf("round %d already exists in competition %s", item.Number, item.CompetitionID)
		}
	}
	r.items[item.ID] = item

	return nil
}

func (r *RoundRepository) UpdateLockTime(_ context.Context, id string, lockTime time.Time, clearInviteCode bool) (round.Round, error) {
	r.mu.Lock()
	rnd, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return round.Round{}, fmt.Errorf("round %s not found", id)
	}
	rnd.LockTime = lockTime
	r.items[id] = rnd
	r.mu.Unlock()

	if clearInviteCode && r.competitions != nil {
		r.competitions.clearInviteCode(rnd.CompetitionID)
	}

	return rnd, nil
}

// markProcessed stamps the round's missed-pick sweep marker. Returns false
// when the round was already swept.
func (r *RoundRepository) markProcessed(id string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rnd, ok := r.items[id]
	if !ok || rnd.ProcessedAt != nil {
		return false
	}
	rnd.ProcessedAt = &at
	r.items[id] = rnd

	return true
}
