package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/fixture"
)

type FixtureRepository struct {
	mu    sync.RWMutex
	items map[string]fixture.Fixture
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	for _, fx := range fixtures {
		items[fx.ID] = fx
	}

	return &FixtureRepository{items: items}
}

func (r *FixtureRepository) GetByID(_ context.Context, id string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fx, ok := r.items[id]
	if !ok {
		return fixture.Fixture{}, false, nil
	}

	return fx, true, nil
}

func (r *FixtureRepository) ListByRound(_ context.Context, roundID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.items))
	for _, fx := range r.items {
		if fx.RoundID == roundID {
			out = append(out, fx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *FixtureRepository) Create(_ context.Context, item fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("fixture %s already exists", item.ID)
	}
	r.items[item.ID] = item

	return nil
}

func (r *FixtureRepository) SetResult(_ context.Context, id string, result string) (fixture.Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fx, ok := r.items[id]
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("fixture %s not found", id)
	}
	if fx.Resolved() {
		return fixture.Fixture{}, fixture.ErrFixtureResolved
	}
	fx.Result = &result
	r.items[id] = fx

	return fx, nil
}

// markProcessed stamps the fixture's elimination marker. Returns false when
// the fixture was already processed.
func (r *FixtureRepository) markProcessed(id string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	fx, ok := r.items[id]
	if !ok || fx.ProcessedAt != nil {
		return false
	}
	fx.ProcessedAt = &at
	r.items[id] = fx

	return true
}
