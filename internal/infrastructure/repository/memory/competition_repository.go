package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/noodev8/lmslocal/internal/domain/competition"
)

type CompetitionRepository struct {
	mu    sync.RWMutex
	items map[string]competition.Competition
}

func NewCompetitionRepository(items []competition.Competition) *CompetitionRepository {
	out := make(map[string]competition.Competition, len(items))
	for _, c := range items {
		out[c.ID] = c
	}

	return &CompetitionRepository{items: out}
}

func (r *CompetitionRepository) GetByID(_ context.Context, id string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return competition.Competition{}, false, nil
	}

	return c, true, nil
}

func (r *CompetitionRepository) GetByInviteCode(_ context.Context, code string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.InviteCode != nil && *c.InviteCode == code {
			return c, true, nil
		}
	}

	return competition.Competition{}, false, nil
}

func (r *CompetitionRepository) Create(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("competition %s already exists", item.ID)
	}
	r.items[item.ID] = item

	return nil
}

func (r *CompetitionRepository) UpdateStatus(_ context.Context, id string, status competition.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return fmt.Errorf("competition %s not found", id)
	}
	c.Status = status
	r.items[id] = c

	return nil
}

// clearInviteCode is called by the round repository when round 1's lock time
// closes registration.
func (r *CompetitionRepository) clearInviteCode(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return
	}
	c.InviteCode = nil
	r.items[id] = c
}
