package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/round"
	idgen "github.com/noodev8/lmslocal/internal/platform/id"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

type UpdateRoundLockTimeInput struct {
	RoundID  string
	LockTime time.Time
	ActorID  string
}

type CreateRoundInput struct {
	CompetitionID string
	Number        int
	LockTime      time.Time
	ActorID       string
}

type CreateFixtureInput struct {
	RoundID   string
	HomeTeam  string
	AwayTeam  string
	HomeShort string
	AwayShort string
	KickoffAt time.Time
	ActorID   string
}

type RoundService struct {
	competitionRepo competition.Repository
	roundRepo       round.Repository
	fixtureRepo     fixture.Repository
	auditRepo       audit.Repository
	ids             idgen.Generator
	logger          *logging.Logger
	now             func() time.Time
}

func NewRoundService(
	competitionRepo competition.Repository,
	roundRepo round.Repository,
	fixtureRepo fixture.Repository,
	auditRepo audit.Repository,
	ids idgen.Generator,
	logger *logging.Logger,
) *RoundService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RoundService{
		competitionRepo: competitionRepo,
		roundRepo:       roundRepo,
		fixtureRepo:     fixtureRepo,
		auditRepo:       auditRepo,
		ids:             ids,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *RoundService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// UpdateLockTime sets a round's lock time. Only the competition organiser
// may call it. Moving round 1's lock time into the past closes registration:
// the competition's invite code is cleared in the same transaction as the
// lock-time write.
func (s *RoundService) UpdateLockTime(ctx context.Context, input UpdateRoundLockTimeInput) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.UpdateLockTime")
	defer span.End()

	input.RoundID = strings.TrimSpace(input.RoundID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.RoundID == "" {
		return round.Round{}, fmt.Errorf("%w: round_id is required", ErrInvalidInput)
	}
	if input.ActorID == "" {
		return round.Round{}, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if input.LockTime.IsZero() {
		return round.Round{}, fmt.Errorf("%w: lock_time is required", ErrInvalidInput)
	}

	rnd, ok, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		return round.Round{}, fmt.Errorf("get round by id: %w", err)
	}
	if !ok {
		return round.Round{}, fmt.Errorf("%w: round=%s", ErrNotFound, input.RoundID)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, rnd.CompetitionID)
	if err != nil {
		return round.Round{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return round.Round{}, fmt.Errorf("%w: competition=%s", ErrNotFound, rnd.CompetitionID)
	}

	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return round.Round{}, fmt.Errorf("%w: only the organiser may change lock times", ErrUnauthorized)
	}

	clearInvite := rnd.Number == 1 && !s.now().Before(input.LockTime) && comp.RegistrationOpen()

	updated, err := s.roundRepo.UpdateLockTime(ctx, rnd.ID, input.LockTime.UTC(), clearInvite)
	if err != nil {
		return round.Round{}, fmt.Errorf("update round lock time: %w", err)
	}

	s.recordAudit(ctx, audit.Entry{
		CompetitionID: comp.ID,
		ActorID:       input.ActorID,
		Action:        audit.ActionRoundLockTimeSet,
		Detail:        fmt.Sprintf("round=%d lock_time=%s registration_closed=%t", rnd.Number, input.LockTime.UTC().Format(time.RFC3339), clearInvite),
		CreatedAt:     s.now().UTC(),
	})

	s.logger.InfoContext(ctx, "round lock time updated",
		"competition_id", comp.ID,
		"round_id", rnd.ID,
		"round_number", rnd.Number,
		"lock_time", input.LockTime.UTC(),
		"invite_code_cleared", clearInvite,
	)

	return updated, nil
}

// CreateRound adds the next round to a competition. Round numbers are
// 1-based and must extend the sequence: creating round N requires round N-1.
func (s *RoundService) CreateRound(ctx context.Context, input CreateRoundInput) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.CreateRound")
	defer span.End()

	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.CompetitionID == "" {
		return round.Round{}, fmt.Errorf("%w: competition_id is required", ErrInvalidInput)
	}
	if input.Number < 1 {
		return round.Round{}, fmt.Errorf("%w: round number must be >= 1", ErrInvalidInput)
	}
	if input.LockTime.IsZero() {
		return round.Round{}, fmt.Errorf("%w: lock_time is required", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return round.Round{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return round.Round{}, fmt.Errorf("%w: competition=%s", ErrNotFound, input.CompetitionID)
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return round.Round{}, fmt.Errorf("%w: only the organiser may create rounds", ErrUnauthorized)
	}

	if _, exists, err := s.roundRepo.GetByCompetitionAndNumber(ctx, comp.ID, input.Number); err != nil {
		return round.Round{}, fmt.Errorf("check round number: %w", err)
	} else if exists {
		return round.Round{}, fmt.Errorf("%w: round %d already exists", ErrInvalidInput, input.Number)
	}
	if input.Number > 1 {
		if _, exists, err := s.roundRepo.GetByCompetitionAndNumber(ctx, comp.ID, input.Number-1); err != nil {
			return round.Round{}, fmt.Errorf("check previous round: %w", err)
		} else if !exists {
			return round.Round{}, fmt.Errorf("%w: round %d requires round %d to exist", ErrInvalidInput, input.Number, input.Number-1)
		}
	}

	id, err := s.ids.NewID()
	if err != nil {
		return round.Round{}, fmt.Errorf("generate round id: %w", err)
	}

	item := round.Round{
		ID:            id,
		CompetitionID: comp.ID,
		Number:        input.Number,
		LockTime:      input.LockTime.UTC(),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.roundRepo.Create(ctx, item); err != nil {
		return round.Round{}, fmt.Errorf("create round: %w", err)
	}

	return item, nil
}

// CreateFixture adds a fixture to an unlocked round.
func (s *RoundService) CreateFixture(ctx context.Context, input CreateFixtureInput) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.CreateFixture")
	defer span.End()

	input.RoundID = strings.TrimSpace(input.RoundID)
	input.HomeShort = strings.ToUpper(strings.TrimSpace(input.HomeShort))
	input.AwayShort = strings.ToUpper(strings.TrimSpace(input.AwayShort))
	if input.RoundID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: round_id is required", ErrInvalidInput)
	}
	if input.HomeShort == "" || input.AwayShort == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: home and away team short codes are required", ErrInvalidInput)
	}
	if input.HomeShort == input.AwayShort {
		return fixture.Fixture{}, fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	}

	rnd, ok, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get round by id: %w", err)
	}
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: round=%s", ErrNotFound, input.RoundID)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, rnd.CompetitionID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: competition=%s", ErrNotFound, rnd.CompetitionID)
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return fixture.Fixture{}, fmt.Errorf("%w: only the organiser may create fixtures", ErrUnauthorized)
	}
	if rnd.Locked(s.now()) {
		return fixture.Fixture{}, fmt.Errorf("%w: fixtures must be created before lock time", ErrRoundLocked)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("generate fixture id: %w", err)
	}

	item := fixture.Fixture{
		ID:        id,
		RoundID:   rnd.ID,
		HomeTeam:  strings.TrimSpace(input.HomeTeam),
		AwayTeam:  strings.TrimSpace(input.AwayTeam),
		HomeShort: input.HomeShort,
		AwayShort: input.AwayShort,
		KickoffAt: input.KickoffAt.UTC(),
	}
	if err := s.fixtureRepo.Create(ctx, item); err != nil {
		return fixture.Fixture{}, fmt.Errorf("create fixture: %w", err)
	}

	return item, nil
}

// ListFixtures returns a round's fixtures.
func (s *RoundService) ListFixtures(ctx context.Context, roundID string) ([]fixture.Fixture, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return nil, fmt.Errorf("%w: round_id is required", ErrInvalidInput)
	}

	items, err := s.fixtureRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures by round: %w", err)
	}
	return items, nil
}

// recordAudit never fails the caller: this service's audit posture is
// best-effort (the pick path's transactional audit lives in the pick repo).
func (s *RoundService) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", string(entry.Action), "error", err)
	}
}
