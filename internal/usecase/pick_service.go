package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/eligibility"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/domain/team"
	idgen "github.com/noodev8/lmslocal/internal/platform/id"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

type SetPickInput struct {
	FixtureID string
	Side      string
	ActorID   string
	// TargetUserID is the player the pick is for; empty means the actor
	// picks for themselves. Anyone else requires organiser authority.
	TargetUserID string
}

// PickPolicy collects the configurable override behaviors.
type PickPolicy struct {
	// AdminBypassTeamTwice lets organiser-set picks skip the no-team-twice
	// rule. Default false: organisers are held to the same rule.
	AdminBypassTeamTwice bool
}

type PickService struct {
	competitionRepo competition.Repository
	roundRepo       round.Repository
	fixtureRepo     fixture.Repository
	pickRepo        pick.Repository
	entrantRepo     entrant.Repository
	eligibilityRepo eligibility.Repository
	teamRepo        team.Repository
	ids             idgen.Generator
	policy          PickPolicy
	logger          *logging.Logger
	now             func() time.Time
}

func NewPickService(
	competitionRepo competition.Repository,
	roundRepo round.Repository,
	fixtureRepo fixture.Repository,
	pickRepo pick.Repository,
	entrantRepo entrant.Repository,
	eligibilityRepo eligibility.Repository,
	teamRepo team.Repository,
	ids idgen.Generator,
	policy PickPolicy,
	logger *logging.Logger,
) *PickService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PickService{
		competitionRepo: competitionRepo,
		roundRepo:       roundRepo,
		fixtureRepo:     fixtureRepo,
		pickRepo:        pickRepo,
		entrantRepo:     entrantRepo,
		eligibilityRepo: eligibilityRepo,
		teamRepo:        teamRepo,
		ids:             ids,
		policy:          policy,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *PickService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetPick validates and stores one player's pick for the fixture's round.
// The gates run in a fixed order so every failure mode maps to exactly one
// error: existence, authorization, membership, round lock, team reuse, team
// eligibility, then the transactional upsert.
func (s *PickService) SetPick(ctx context.Context, input SetPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SetPick")
	defer span.End()

	input.FixtureID = strings.TrimSpace(input.FixtureID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	input.TargetUserID = strings.TrimSpace(input.TargetUserID)
	if input.FixtureID == "" {
		return pick.Pick{}, fmt.Errorf("%w: fixture_id is required", ErrInvalidInput)
	}
	if input.ActorID == "" {
		return pick.Pick{}, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if input.TargetUserID == "" {
		input.TargetUserID = input.ActorID
	}

	side, err := fixture.ParseSide(input.Side)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fx, ok, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get fixture by id: %w", err)
	}
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	rnd, ok, err := s.roundRepo.GetByID(ctx, fx.RoundID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get round by id: %w", err)
	}
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: round=%s", ErrNotFound, fx.RoundID)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, rnd.CompetitionID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: competition=%s", ErrNotFound, rnd.CompetitionID)
	}

	authority := resolveAuthority(input.ActorID, comp)
	if input.ActorID != input.TargetUserID && authority != AuthorityOrganiser {
		return pick.Pick{}, fmt.Errorf("%w: only the organiser may pick for another player", ErrUnauthorized)
	}
	// An override is the organiser acting on another player's behalf. An
	// organiser picking as a playing entrant goes through the same pool and
	// reuse gates as everyone else.
	adminOverride := authority == AuthorityOrganiser && input.ActorID != input.TargetUserID

	_, ok, err = s.entrantRepo.GetByCompetitionAndUser(ctx, comp.ID, input.TargetUserID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get entrant: %w", err)
	}
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: user %s is not in competition %s", ErrUnauthorized, input.TargetUserID, comp.ID)
	}

	// The lock is derived from the clock at this transaction, not cached
	// from request entry. Organiser authority bypasses the time lock only.
	if rnd.Locked(s.now()) && authority != AuthorityOrganiser {
		return pick.Pick{}, fmt.Errorf("%w: round %d locked at %s", ErrRoundLocked, rnd.Number, rnd.LockTime.UTC().Format(time.RFC3339))
	}

	chosenShort, err := fx.TeamForSide(side)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	chosenTeam, ok, err := s.teamRepo.GetByShort(ctx, comp.TeamListID, chosenShort)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get team by short code: %w", err)
	}
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: team=%s", ErrNotFound, chosenShort)
	}

	prior, hadPrior, err := s.pickRepo.GetByRoundAndUser(ctx, rnd.ID, input.TargetUserID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get prior pick: %w", err)
	}

	if comp.NoTeamTwice && !(adminOverride && s.policy.AdminBypassTeamTwice) {
		if err := s.checkTeamNotReused(ctx, comp.ID, input.TargetUserID, rnd.ID, chosenShort); err != nil {
			return pick.Pick{}, err
		}
	}

	var exchange *pick.EligibilityExchange
	if !adminOverride {
		allowed, err := s.eligibilityRepo.ListTeamIDs(ctx, comp.ID, input.TargetUserID)
		if err != nil {
			return pick.Pick{}, fmt.Errorf("list allowed teams: %w", err)
		}
		if !containsString(allowed, chosenTeam.ID) && !(hadPrior && prior.Team == chosenShort) {
			return pick.Pick{}, fmt.Errorf("%w: team=%s", ErrTeamNotAllowed, chosenShort)
		}
		exchange = &pick.EligibilityExchange{
			CompetitionID: comp.ID,
			TeamListID:    comp.TeamListID,
			ConsumeTeamID: chosenTeam.ID,
		}
	}

	id, err := s.ids.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}

	item := pick.Pick{
		ID:        id,
		RoundID:   rnd.ID,
		UserID:    input.TargetUserID,
		Team:      chosenShort,
		FixtureID: fx.ID,
		CreatedAt: s.now().UTC(),
	}
	action := audit.ActionPickSet
	if hadPrior {
		action = audit.ActionPickChanged
	}
	if adminOverride {
		actor := input.ActorID
		item.SetByAdminID = &actor
		action = audit.ActionPickAdminOverride
	}

	stored, err := s.pickRepo.Save(ctx, item, exchange, audit.Entry{
		CompetitionID: comp.ID,
		UserID:        input.TargetUserID,
		ActorID:       input.ActorID,
		Action:        action,
		Detail:        fmt.Sprintf("round=%d fixture=%s team=%s", rnd.Number, fx.ID, chosenShort),
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		// Losing the pool race inside the transaction is the same outcome as
		// failing the eligibility gate above.
		if errors.Is(err, pick.ErrTeamUnavailable) {
			return pick.Pick{}, fmt.Errorf("%w: team=%s", ErrTeamNotAllowed, chosenShort)
		}
		return pick.Pick{}, fmt.Errorf("save pick: %w", err)
	}

	s.logger.InfoContext(ctx, "pick stored",
		"competition_id", comp.ID,
		"round_id", rnd.ID,
		"user_id", input.TargetUserID,
		"team", chosenShort,
		"changed", hadPrior,
		"admin_set", item.SetByAdminID != nil,
	)

	return stored, nil
}

// GetPick returns the player's pick for a round, if any.
func (s *PickService) GetPick(ctx context.Context, roundID, userID string) (pick.Pick, bool, error) {
	roundID = strings.TrimSpace(roundID)
	userID = strings.TrimSpace(userID)
	if roundID == "" || userID == "" {
		return pick.Pick{}, false, fmt.Errorf("%w: round_id and user_id are required", ErrInvalidInput)
	}

	item, ok, err := s.pickRepo.GetByRoundAndUser(ctx, roundID, userID)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("get pick by round and user: %w", err)
	}
	return item, ok, nil
}

func (s *PickService) checkTeamNotReused(ctx context.Context, competitionID, userID, roundID, short string) error {
	picks, err := s.pickRepo.ListByCompetitionAndUser(ctx, competitionID, userID)
	if err != nil {
		return fmt.Errorf("list picks by competition and user: %w", err)
	}
	for _, p := range picks {
		// Re-submitting the same team for the same round is a no-op, not a
		// reuse.
		if p.RoundID == roundID {
			continue
		}
		if p.Team == short {
			return fmt.Errorf("%w: team=%s", ErrTeamAlreadyPicked, short)
		}
	}
	return nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
