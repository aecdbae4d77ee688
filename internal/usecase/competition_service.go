package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/domain/team"
	idgen "github.com/noodev8/lmslocal/internal/platform/id"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

type CreateCompetitionInput struct {
	Name           string
	OrganiserID    string
	TeamListID     string
	LivesPerPlayer int
	NoTeamTwice    bool
	// OrganiserPlays enrols the organiser as an entrant too.
	OrganiserPlays bool
}

type JoinCompetitionInput struct {
	InviteCode string
	UserID     string
}

type ReinstateEntrantInput struct {
	CompetitionID string
	UserID        string
	Lives         int
	ActorID       string
}

// StandingRow is one entrant's line in the competition table.
type StandingRow struct {
	UserID         string
	Status         entrant.Status
	LivesRemaining int
	JoinedAt       time.Time
}

type CompetitionService struct {
	competitionRepo competition.Repository
	teamRepo        team.Repository
	roundRepo       round.Repository
	entrantRepo     entrant.Repository
	auditRepo       audit.Repository
	eligibility     *EligibilityService
	ids             idgen.Generator
	logger          *logging.Logger
	now             func() time.Time
}

func NewCompetitionService(
	competitionRepo competition.Repository,
	teamRepo team.Repository,
	roundRepo round.Repository,
	entrantRepo entrant.Repository,
	auditRepo audit.Repository,
	eligibilitySvc *EligibilityService,
	ids idgen.Generator,
	logger *logging.Logger,
) *CompetitionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CompetitionService{
		competitionRepo: competitionRepo,
		teamRepo:        teamRepo,
		roundRepo:       roundRepo,
		entrantRepo:     entrantRepo,
		auditRepo:       auditRepo,
		eligibility:     eligibilitySvc,
		ids:             ids,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *CompetitionService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create sets up a new competition with a fresh invite code. The organiser
// can opt in as a playing entrant, in which case their allowed-teams pool is
// seeded immediately.
func (s *CompetitionService) Create(ctx context.Context, input CreateCompetitionInput) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Create")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.OrganiserID = strings.TrimSpace(input.OrganiserID)
	input.TeamListID = strings.TrimSpace(input.TeamListID)
	if input.Name == "" {
		return competition.Competition{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.OrganiserID == "" {
		return competition.Competition{}, fmt.Errorf("%w: organiser is required", ErrInvalidInput)
	}
	if input.TeamListID == "" {
		return competition.Competition{}, fmt.Errorf("%w: team_list_id is required", ErrInvalidInput)
	}
	if input.LivesPerPlayer < 1 {
		return competition.Competition{}, fmt.Errorf("%w: lives per player must be >= 1", ErrInvalidInput)
	}

	teams, err := s.teamRepo.ListActiveByTeamList(ctx, input.TeamListID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("list active teams: %w", err)
	}
	if len(teams) == 0 {
		return competition.Competition{}, fmt.Errorf("%w: team list %s has no active teams", ErrInvalidInput, input.TeamListID)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("generate competition id: %w", err)
	}
	code, err := s.ids.NewInviteCode()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("generate invite code: %w", err)
	}

	item := competition.Competition{
		ID:             id,
		Name:           input.Name,
		Status:         competition.StatusSetup,
		OrganiserID:    input.OrganiserID,
		TeamListID:     input.TeamListID,
		LivesPerPlayer: input.LivesPerPlayer,
		NoTeamTwice:    input.NoTeamTwice,
		InviteCode:     &code,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.competitionRepo.Create(ctx, item); err != nil {
		return competition.Competition{}, fmt.Errorf("create competition: %w", err)
	}

	s.recordAudit(ctx, audit.Entry{
		CompetitionID: item.ID,
		ActorID:       input.OrganiserID,
		Action:        audit.ActionCompetitionCreated,
		Detail:        fmt.Sprintf("name=%q lives=%d no_team_twice=%t", item.Name, item.LivesPerPlayer, item.NoTeamTwice),
		CreatedAt:     s.now().UTC(),
	})

	if input.OrganiserPlays {
		if err := s.enrol(ctx, item, input.OrganiserID); err != nil {
			return competition.Competition{}, err
		}
	}

	s.logger.InfoContext(ctx, "competition created",
		"competition_id", item.ID,
		"organiser_id", input.OrganiserID,
		"organiser_plays", input.OrganiserPlays,
	)

	return item, nil
}

// Join adds a player to a competition via its invite code. Once the code is
// cleared (round 1 locked) there is no way in.
func (s *CompetitionService) Join(ctx context.Context, input JoinCompetitionInput) (entrant.Entrant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Join")
	defer span.End()

	input.InviteCode = strings.ToUpper(strings.TrimSpace(input.InviteCode))
	input.UserID = strings.TrimSpace(input.UserID)
	if input.InviteCode == "" {
		return entrant.Entrant{}, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return entrant.Entrant{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByInviteCode(ctx, input.InviteCode)
	if err != nil {
		return entrant.Entrant{}, fmt.Errorf("get competition by invite code: %w", err)
	}
	if !ok {
		return entrant.Entrant{}, fmt.Errorf("%w: invite code not recognised", ErrNotFound)
	}
	if !comp.RegistrationOpen() {
		return entrant.Entrant{}, fmt.Errorf("%w: competition=%s", ErrRegistrationClosed, comp.ID)
	}

	// The cleared invite code is an optimisation; the lock time is the
	// authoritative registration boundary.
	if first, ok, err := s.roundRepo.GetByCompetitionAndNumber(ctx, comp.ID, 1); err != nil {
		return entrant.Entrant{}, fmt.Errorf("get first round: %w", err)
	} else if ok && first.Locked(s.now()) {
		return entrant.Entrant{}, fmt.Errorf("%w: round 1 has locked", ErrRegistrationClosed)
	}

	if existing, ok, err := s.entrantRepo.GetByCompetitionAndUser(ctx, comp.ID, input.UserID); err != nil {
		return entrant.Entrant{}, fmt.Errorf("get entrant: %w", err)
	} else if ok {
		// Joining twice is a no-op, not an error.
		return existing, nil
	}

	item := entrant.Entrant{
		CompetitionID:  comp.ID,
		UserID:         input.UserID,
		Status:         entrant.StatusActive,
		LivesRemaining: comp.LivesPerPlayer,
		JoinedAt:       s.now().UTC(),
	}
	if err := s.entrantRepo.Create(ctx, item); err != nil {
		return entrant.Entrant{}, fmt.Errorf("create entrant: %w", err)
	}

	if s.eligibility != nil {
		if _, err := s.eligibility.PopulateAllowedTeams(ctx, comp.ID, input.UserID); err != nil {
			return entrant.Entrant{}, fmt.Errorf("seed allowed teams: %w", err)
		}
	}

	s.recordAudit(ctx, audit.Entry{
		CompetitionID: comp.ID,
		UserID:        input.UserID,
		ActorID:       input.UserID,
		Action:        audit.ActionEntrantJoined,
		Detail:        fmt.Sprintf("lives=%d", item.LivesRemaining),
		CreatedAt:     s.now().UTC(),
	})

	s.logger.InfoContext(ctx, "entrant joined",
		"competition_id", comp.ID,
		"user_id", input.UserID,
	)

	return item, nil
}

// Get returns a competition by id.
func (s *CompetitionService) Get(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition_id is required", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}
	return comp, nil
}

// Standings lists entrants ordered survivors first, then by lives remaining,
// then by join time for a stable table.
func (s *CompetitionService) Standings(ctx context.Context, competitionID string) ([]StandingRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Standings")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition_id is required", ErrInvalidInput)
	}
	if _, ok, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		return nil, fmt.Errorf("get competition by id: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}

	entrants, err := s.entrantRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list entrants: %w", err)
	}

	rows := make([]StandingRow, 0, len(entrants))
	for _, ent := range entrants {
		rows = append(rows, StandingRow{
			UserID:         ent.UserID,
			Status:         ent.Status,
			LivesRemaining: ent.LivesRemaining,
			JoinedAt:       ent.JoinedAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Status == entrant.StatusActive) != (rows[j].Status == entrant.StatusActive) {
			return rows[i].Status == entrant.StatusActive
		}
		if rows[i].LivesRemaining != rows[j].LivesRemaining {
			return rows[i].LivesRemaining > rows[j].LivesRemaining
		}
		return rows[i].JoinedAt.Before(rows[j].JoinedAt)
	})

	return rows, nil
}

// ReinstateEntrant is the organiser override that brings an eliminated
// player back with the given lives budget.
func (s *CompetitionService) ReinstateEntrant(ctx context.Context, input ReinstateEntrantInput) (entrant.Entrant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ReinstateEntrant")
	defer span.End()

	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	if input.CompetitionID == "" || input.UserID == "" {
		return entrant.Entrant{}, fmt.Errorf("%w: competition_id and user_id are required", ErrInvalidInput)
	}
	if input.Lives < 1 {
		return entrant.Entrant{}, fmt.Errorf("%w: lives must be >= 1", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return entrant.Entrant{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return entrant.Entrant{}, fmt.Errorf("%w: competition=%s", ErrNotFound, input.CompetitionID)
	}
	if resolveAuthority(input.ActorID, comp) != AuthorityOrganiser {
		return entrant.Entrant{}, fmt.Errorf("%w: only the organiser may reinstate entrants", ErrUnauthorized)
	}

	if _, ok, err := s.entrantRepo.GetByCompetitionAndUser(ctx, comp.ID, input.UserID); err != nil {
		return entrant.Entrant{}, fmt.Errorf("get entrant: %w", err)
	} else if !ok {
		return entrant.Entrant{}, fmt.Errorf("%w: user %s is not in competition %s", ErrNotFound, input.UserID, comp.ID)
	}

	updated, err := s.entrantRepo.Reinstate(ctx, comp.ID, input.UserID, input.Lives)
	if err != nil {
		return entrant.Entrant{}, fmt.Errorf("reinstate entrant: %w", err)
	}

	s.recordAudit(ctx, audit.Entry{
		CompetitionID: comp.ID,
		UserID:        input.UserID,
		ActorID:       input.ActorID,
		Action:        audit.ActionEntrantReinstated,
		Detail:        fmt.Sprintf("lives=%d", input.Lives),
		CreatedAt:     s.now().UTC(),
	})

	return updated, nil
}

func (s *CompetitionService) enrol(ctx context.Context, comp competition.Competition, userID string) error {
	item := entrant.Entrant{
		CompetitionID:  comp.ID,
		UserID:         userID,
		Status:         entrant.StatusActive,
		LivesRemaining: comp.LivesPerPlayer,
		JoinedAt:       s.now().UTC(),
	}
	if err := s.entrantRepo.Create(ctx, item); err != nil {
		return fmt.Errorf("create entrant: %w", err)
	}
	if s.eligibility != nil {
		if _, err := s.eligibility.PopulateAllowedTeams(ctx, comp.ID, userID); err != nil {
			return fmt.Errorf("seed allowed teams: %w", err)
		}
	}
	return nil
}

func (s *CompetitionService) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", string(entry.Action), "error", err)
	}
}
