package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

const (
	defaultProcessWorkers = 4
	maxProcessWorkers     = 16
)

type SetFixtureResultInput struct {
	FixtureID string
	// Result is "home_win", "away_win" or "draw".
	Result  string
	ActorID string
}

type ProcessFixtureInput struct {
	FixtureID string
	ActorID   string
}

type ProcessRoundInput struct {
	RoundID    string
	ActorID    string
	MaxWorkers int
}

// FixtureProcessOutcome summarises one fixture's elimination pass.
type FixtureProcessOutcome struct {
	FixtureID        string
	Processed        bool
	PicksSettled     int
	LivesLost        int
	Eliminated       int
	AlreadyProcessed bool
}

// RoundProcessOutcome summarises a whole round's processing run.
type RoundProcessOutcome struct {
	RoundID       string
	Fixtures      []FixtureProcessOutcome
	PicksSettled  int
	LivesLost     int
	Eliminated    int
	MissedPicks   int
	SweepApplied  bool
	SweepSkipped  bool
	RemainingOpen int
}

// ResultService records fixture results and turns them into lives and
// eliminations. Processing is idempotent: fixtures and rounds carry a
// processed marker that is checked and stamped in the same transaction as
// the entrant updates.
type ResultService struct {
	competitionRepo competition.Repository
	roundRepo       round.Repository
	fixtureRepo     fixture.Repository
	pickRepo        pick.Repository
	entrantRepo     entrant.Repository
	auditRepo       audit.Repository
	logger          *logging.Logger
	now             func() time.Time
}

func NewResultService(
	competitionRepo competition.Repository,
	roundRepo round.Repository,
	fixtureRepo fixture.Repository,
	pickRepo pick.Repository,
	entrantRepo entrant.Repository,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *ResultService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ResultService{
		competitionRepo: competitionRepo,
		roundRepo:       roundRepo,
		fixtureRepo:     fixtureRepo,
		pickRepo:        pickRepo,
		entrantRepo:     entrantRepo,
		auditRepo:       auditRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *ResultService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetFixtureResult records a fixture's final result. Organiser only, and
// only once the round is locked: results landing while picks are still open
// would let players pick with hindsight.
func (s *ResultService) SetFixtureResult(ctx context.Context, input SetFixtureResultInput) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.SetFixtureResult")
	defer span.End()

	input.FixtureID = strings.TrimSpace(input.FixtureID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.FixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture_id is required", ErrInvalidInput)
	}
	if input.ActorID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}

	kind, err := fixture.ParseResultKind(input.Result)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fx, ok, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture by id: %w", err)
	}
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	rnd, comp, err := s.loadRoundAndCompetition(ctx, fx.RoundID)
	if err != nil {
		return fixture.Fixture{}, err
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return fixture.Fixture{}, fmt.Errorf("%w: only the organiser may record results", ErrUnauthorized)
	}
	if !rnd.Locked(s.now()) {
		return fixture.Fixture{}, fmt.Errorf("%w: results cannot be recorded before round %d locks", ErrRoundNotLocked, rnd.Number)
	}

	stored, err := fx.StoredResult(kind)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.fixtureRepo.SetResult(ctx, fx.ID, stored)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("set fixture result: %w", err)
	}

	s.recordAudit(ctx, audit.Entry{
		CompetitionID: comp.ID,
		ActorID:       input.ActorID,
		Action:        audit.ActionFixtureResultSet,
		Detail:        fmt.Sprintf("fixture=%s result=%s", fx.ID, stored),
		CreatedAt:     s.now().UTC(),
	})

	s.logger.InfoContext(ctx, "fixture result recorded",
		"competition_id", comp.ID,
		"round_id", rnd.ID,
		"fixture_id", fx.ID,
		"result", stored,
	)

	return updated, nil
}

// ProcessFixture settles every pick on one resolved fixture: losing picks
// (including draws) cost a life, and a life reaching zero eliminates the
// entrant. Re-running it on an already processed fixture is a no-op.
func (s *ResultService) ProcessFixture(ctx context.Context, input ProcessFixtureInput) (FixtureProcessOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ProcessFixture")
	defer span.End()

	input.FixtureID = strings.TrimSpace(input.FixtureID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.FixtureID == "" {
		return FixtureProcessOutcome{}, fmt.Errorf("%w: fixture_id is required", ErrInvalidInput)
	}

	fx, ok, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		return FixtureProcessOutcome{}, fmt.Errorf("get fixture by id: %w", err)
	}
	if !ok {
		return FixtureProcessOutcome{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	rnd, comp, err := s.loadRoundAndCompetition(ctx, fx.RoundID)
	if err != nil {
		return FixtureProcessOutcome{}, err
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return FixtureProcessOutcome{}, fmt.Errorf("%w: only the organiser may process results", ErrUnauthorized)
	}

	return s.processFixture(ctx, comp, rnd, fx)
}

func (s *ResultService) processFixture(ctx context.Context, comp competition.Competition, rnd round.Round, fx fixture.Fixture) (FixtureProcessOutcome, error) {
	outcome := FixtureProcessOutcome{FixtureID: fx.ID}

	if !fx.Resolved() {
		return outcome, fmt.Errorf("%w: fixture %s has no result yet", ErrInvalidInput, fx.ID)
	}
	if fx.Processed() {
		outcome.AlreadyProcessed = true
		return outcome, nil
	}

	picks, err := s.pickRepo.ListByRound(ctx, rnd.ID)
	if err != nil {
		return outcome, fmt.Errorf("list picks by round: %w", err)
	}

	entrants, err := s.activeEntrantsByUser(ctx, comp.ID)
	if err != nil {
		return outcome, err
	}

	var updates []entrant.LivesUpdate
	var auditEntries []audit.Entry
	for _, p := range picks {
		if p.FixtureID != fx.ID {
			continue
		}
		ent, ok := entrants[p.UserID]
		if !ok {
			continue
		}
		outcome.PicksSettled++
		if fx.PickOutcome(p.Team) != fixture.OutcomeLoss {
			continue
		}

		after := ent.ApplyLoss()
		updates = append(updates, entrant.LivesUpdate{
			UserID:         p.UserID,
			LivesRemaining: after.LivesRemaining,
			Status:         after.Status,
		})
		outcome.LivesLost++

		action := audit.ActionEntrantLifeLost
		if after.Status == entrant.StatusOut {
			action = audit.ActionEntrantEliminated
			outcome.Eliminated++
		}
		auditEntries = append(auditEntries, audit.Entry{
			CompetitionID: comp.ID,
			UserID:        p.UserID,
			Action:        action,
			Detail:        fmt.Sprintf("fixture=%s team=%s lives=%d", fx.ID, p.Team, after.LivesRemaining),
			CreatedAt:     s.now().UTC(),
		})
	}

	applied, err := s.entrantRepo.ApplyFixtureOutcomes(ctx, comp.ID, fx.ID, updates)
	if err != nil {
		return outcome, fmt.Errorf("apply fixture outcomes: %w", err)
	}
	if !applied {
		// Lost the race with another processor; its writes stand.
		outcome = FixtureProcessOutcome{FixtureID: fx.ID, AlreadyProcessed: true}
		return outcome, nil
	}
	outcome.Processed = true

	for _, entry := range auditEntries {
		s.recordAudit(ctx, entry)
	}

	s.logger.InfoContext(ctx, "fixture processed",
		"competition_id", comp.ID,
		"round_id", rnd.ID,
		"fixture_id", fx.ID,
		"picks_settled", outcome.PicksSettled,
		"lives_lost", outcome.LivesLost,
		"eliminated", outcome.Eliminated,
	)

	return outcome, nil
}

// ProcessRound settles every resolved fixture in the round concurrently,
// then sweeps active entrants who never picked: a missed pick counts as a
// loss. The sweep only runs once every fixture is resolved, and is guarded
// by the round's processed marker so re-runs cannot double-charge.
func (s *ResultService) ProcessRound(ctx context.Context, input ProcessRoundInput) (RoundProcessOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ProcessRound")
	defer span.End()

	input.RoundID = strings.TrimSpace(input.RoundID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.RoundID == "" {
		return RoundProcessOutcome{}, fmt.Errorf("%w: round_id is required", ErrInvalidInput)
	}

	rnd, comp, err := s.loadRoundAndCompetition(ctx, input.RoundID)
	if err != nil {
		return RoundProcessOutcome{}, err
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return RoundProcessOutcome{}, fmt.Errorf("%w: only the organiser may process results", ErrUnauthorized)
	}
	if !rnd.Locked(s.now()) {
		return RoundProcessOutcome{}, fmt.Errorf("%w: round %d is still open for picks", ErrRoundNotLocked, rnd.Number)
	}

	fixtures, err := s.fixtureRepo.ListByRound(ctx, rnd.ID)
	if err != nil {
		return RoundProcessOutcome{}, fmt.Errorf("list fixtures by round: %w", err)
	}

	result := RoundProcessOutcome{RoundID: rnd.ID}

	resolved := make([]fixture.Fixture, 0, len(fixtures))
	for _, fx := range fixtures {
		if fx.Resolved() {
			resolved = append(resolved, fx)
			continue
		}
		result.RemainingOpen++
	}

	if len(resolved) > 0 {
		rows, err := s.processFixturesConcurrently(ctx, comp, rnd, resolved, input.MaxWorkers)
		if err != nil {
			return RoundProcessOutcome{}, err
		}
		result.Fixtures = rows
		for _, row := range rows {
			result.PicksSettled += row.PicksSettled
			result.LivesLost += row.LivesLost
			result.Eliminated += row.Eliminated
		}
	}

	if result.RemainingOpen > 0 {
		result.SweepSkipped = true
		return result, nil
	}

	missed, applied, err := s.sweepMissedPicks(ctx, comp, rnd)
	if err != nil {
		return RoundProcessOutcome{}, err
	}
	result.MissedPicks = missed
	result.SweepApplied = applied
	result.SweepSkipped = !applied

	s.logger.InfoContext(ctx, "round processed",
		"competition_id", comp.ID,
		"round_id", rnd.ID,
		"fixtures", len(resolved),
		"lives_lost", result.LivesLost,
		"eliminated", result.Eliminated,
		"missed_picks", result.MissedPicks,
	)

	return result, nil
}

func (s *ResultService) processFixturesConcurrently(
	ctx context.Context,
	comp competition.Competition,
	rnd round.Round,
	fixtures []fixture.Fixture,
	maxWorkers int,
) ([]FixtureProcessOutcome, error) {
	workerCount := normalizeWorkerCount(maxWorkers, len(fixtures))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan FixtureProcessOutcome, len(fixtures))
	var firstErr atomic.Pointer[error]

	var workers sync.WaitGroup
	for _, fx := range fixtures {
		fx := fx
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row, err := s.processFixture(ctx, comp, rnd, fx)
			if err != nil {
				wrapped := fmt.Errorf("process fixture %s: %w", fx.ID, err)
				firstErr.CompareAndSwap(nil, &wrapped)
				return
			}
			rows <- row
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit fixture to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	if errPtr := firstErr.Load(); errPtr != nil {
		return nil, *errPtr
	}

	out := make([]FixtureProcessOutcome, 0, len(fixtures))
	for row := range rows {
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FixtureID < out[j].FixtureID
	})

	return out, nil
}

func (s *ResultService) sweepMissedPicks(ctx context.Context, comp competition.Competition, rnd round.Round) (int, bool, error) {
	if rnd.ProcessedAt != nil {
		return 0, false, nil
	}

	picks, err := s.pickRepo.ListByRound(ctx, rnd.ID)
	if err != nil {
		return 0, false, fmt.Errorf("list picks by round: %w", err)
	}
	picked := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		picked[p.UserID] = struct{}{}
	}

	entrants, err := s.entrantRepo.ListByCompetition(ctx, comp.ID)
	if err != nil {
		return 0, false, fmt.Errorf("list entrants: %w", err)
	}

	var updates []entrant.LivesUpdate
	var auditEntries []audit.Entry
	for _, ent := range entrants {
		if !ent.Active() {
			continue
		}
		if _, ok := picked[ent.UserID]; ok {
			continue
		}

		after := ent.ApplyLoss()
		updates = append(updates, entrant.LivesUpdate{
			UserID:         ent.UserID,
			LivesRemaining: after.LivesRemaining,
			Status:         after.Status,
		})

		action := audit.ActionEntrantLifeLost
		if after.Status == entrant.StatusOut {
			action = audit.ActionEntrantEliminated
		}
		auditEntries = append(auditEntries, audit.Entry{
			CompetitionID: comp.ID,
			UserID:        ent.UserID,
			Action:        action,
			Detail:        fmt.Sprintf("round=%d missed pick lives=%d", rnd.Number, after.LivesRemaining),
			CreatedAt:     s.now().UTC(),
		})
	}

	applied, err := s.entrantRepo.ApplyRoundMisses(ctx, comp.ID, rnd.ID, updates)
	if err != nil {
		return 0, false, fmt.Errorf("apply round misses: %w", err)
	}
	if !applied {
		return 0, false, nil
	}

	for _, entry := range auditEntries {
		s.recordAudit(ctx, entry)
	}

	return len(updates), true, nil
}

func (s *ResultService) activeEntrantsByUser(ctx context.Context, competitionID string) (map[string]entrant.Entrant, error) {
	entrants, err := s.entrantRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list entrants: %w", err)
	}

	out := make(map[string]entrant.Entrant, len(entrants))
	for _, ent := range entrants {
		if ent.Active() {
			out[ent.UserID] = ent
		}
	}
	return out, nil
}

func (s *ResultService) loadRoundAndCompetition(ctx context.Context, roundID string) (round.Round, competition.Competition, error) {
	rnd, ok, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return round.Round{}, competition.Competition{}, fmt.Errorf("get round by id: %w", err)
	}
	if !ok {
		return round.Round{}, competition.Competition{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, rnd.CompetitionID)
	if err != nil {
		return round.Round{}, competition.Competition{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return round.Round{}, competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, rnd.CompetitionID)
	}

	return rnd, comp, nil
}

func (s *ResultService) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", string(entry.Action), "error", err)
	}
}

func normalizeWorkerCount(requested, tasks int) int {
	count := requested
	if count <= 0 {
		count = defaultProcessWorkers
	}
	if count > maxProcessWorkers {
		count = maxProcessWorkers
	}
	if tasks > 0 && count > tasks {
		count = tasks
	}
	return count
}
