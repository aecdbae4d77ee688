package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/pick"
)

type PickRepository struct {
	mu sync.Mutex
	// items is keyed by roundID|userID, mirroring the unique constraint the
	// upsert targets.
	items       map[string]pick.Pick
	rounds      *RoundRepository
	teams       *TeamRepository
	eligibility *EligibilityRepository
	audits      *AuditRepository
}

func NewPickRepository(
	rounds *RoundRepository,
	teams *TeamRepository,
	eligibility *EligibilityRepository,
	audits *AuditRepository,
) *PickRepository {
	return &PickRepository{
		items:       make(map[string]pick.Pick),
		rounds:      rounds,
		teams:       teams,
		eligibility: eligibility,
		audits:      audits,
	}
}

func (r *PickRepository) GetByRoundAndUser(_ context.Context, roundID, userID string) (pick.Pick, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[pickKey(roundID, userID)]
	if !ok {
		return pick.Pick{}, false, nil
	}

	return p, true, nil
}

func (r *PickRepository) ListByRound(_ context.Context, roundID string) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]pick.Pick, 0, len(r.items))
	for _, p := range r.items {
		if p.RoundID == roundID {
			out = append(out, p)
		}
	}
	sortPicks(out)

	return out, nil
}

func (r *PickRepository) ListByCompetitionAndUser(ctx context.Context, competitionID, userID string) ([]pick.Pick, error) {
	rounds, err := r.rounds.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	roundIDs := make(map[string]struct{}, len(rounds))
	for _, rnd := range rounds {
		roundIDs[rnd.ID] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]pick.Pick, 0, len(rounds))
	for _, p := range r.items {
		if p.UserID != userID {
			continue
		}
		if _, ok := roundIDs[p.RoundID]; ok {
			out = append(out, p)
		}
	}
	sortPicks(out)

	return out, nil
}

func (r *PickRepository) Save(ctx context.Context, item pick.Pick, exchange *pick.EligibilityExchange, entry audit.Entry) (pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pickKey(item.RoundID, item.UserID)
	prior, hadPrior := r.items[key]
	if hadPrior {
		// Upsert on (round, user): the row identity survives pick changes.
		item.ID = prior.ID
		item.CreatedAt = prior.CreatedAt
	}

	if exchange != nil && !(hadPrior && prior.Team == item.Team) {
		if hadPrior {
			priorTeam, ok, err := r.teams.GetByShort(ctx, exchange.TeamListID, prior.Team)
			if err != nil {
				return pick.Pick{}, err
			}
			if ok {
				r.eligibility.restore(exchange.CompetitionID, item.UserID, priorTeam.ID)
			}
		}
		if !r.eligibility.consume(exchange.CompetitionID, item.UserID, exchange.ConsumeTeamID) {
			return pick.Pick{}, fmt.Errorf("%w: team=%s user=%s", pick.ErrTeamUnavailable, exchange.ConsumeTeamID, item.UserID)
		}
	}

	r.items[key] = item

	if r.audits != nil {
		if err := r.audits.Record(ctx, entry); err != nil {
			return pick.Pick{}, err
		}
	}

	return item, nil
}

func pickKey(roundID, userID string) string {
	return roundID + "|" + userID
}

func sortPicks(items []pick.Pick) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].RoundID != items[j].RoundID {
			return items[i].RoundID < items[j].RoundID
		}
		return items[i].UserID < items[j].UserID
	})
}
