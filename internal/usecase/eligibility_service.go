package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/eligibility"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	"github.com/noodev8/lmslocal/internal/domain/team"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

type EligibilityService struct {
	competitionRepo competition.Repository
	teamRepo        team.Repository
	eligibilityRepo eligibility.Repository
	pickRepo        pick.Repository
	entrantRepo     entrant.Repository
	auditRepo       audit.Repository
	logger          *logging.Logger
	now             func() time.Time
}

func NewEligibilityService(
	competitionRepo competition.Repository,
	teamRepo team.Repository,
	eligibilityRepo eligibility.Repository,
	pickRepo pick.Repository,
	entrantRepo entrant.Repository,
	auditRepo audit.Repository,
	logger *logging.Logger,
) *EligibilityService {
	if logger == nil {
		logger = logging.Default()
	}

	return &EligibilityService{
		competitionRepo: competitionRepo,
		teamRepo:        teamRepo,
		eligibilityRepo: eligibilityRepo,
		pickRepo:        pickRepo,
		entrantRepo:     entrantRepo,
		auditRepo:       auditRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the service clock. Tests only.
func (s *EligibilityService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// PopulateAllowedTeams seeds a player's allowed pool with every active team
// in the competition's team list, minus teams the player has already picked.
// Teams already present are left alone, so calling it again (or
// concurrently) never duplicates rows or resurrects consumed teams. Returns
// the number of rows inserted.
func (s *EligibilityService) PopulateAllowedTeams(ctx context.Context, competitionID, userID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EligibilityService.PopulateAllowedTeams")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	userID = strings.TrimSpace(userID)
	if competitionID == "" || userID == "" {
		return 0, fmt.Errorf("%w: competition_id and user_id are required", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return 0, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}

	if err := s.requireEntrant(ctx, comp.ID, userID); err != nil {
		return 0, err
	}

	teamIDs, err := s.seedableTeamIDs(ctx, comp, userID)
	if err != nil {
		return 0, err
	}

	inserted, err := s.eligibilityRepo.Populate(ctx, comp.ID, userID, teamIDs)
	if err != nil {
		return 0, fmt.Errorf("populate allowed teams: %w", err)
	}

	s.logger.InfoContext(ctx, "allowed teams populated",
		"competition_id", comp.ID,
		"user_id", userID,
		"inserted", inserted,
	)

	return inserted, nil
}

// CheckAndResetTeams restores the full pool when a player has consumed every
// team. The exhaustion check is re-run inside the repository transaction, so
// two concurrent calls cannot both reset and a pick landing in between
// cannot be clobbered.
func (s *EligibilityService) CheckAndResetTeams(ctx context.Context, competitionID, userID string) (eligibility.ResetOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EligibilityService.CheckAndResetTeams")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	userID = strings.TrimSpace(userID)
	if competitionID == "" || userID == "" {
		return eligibility.ResetOutcome{}, fmt.Errorf("%w: competition_id and user_id are required", ErrInvalidInput)
	}

	comp, ok, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("get competition by id: %w", err)
	}
	if !ok {
		return eligibility.ResetOutcome{}, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}

	// A non-entrant has an empty pool by definition; without this gate the
	// exhaustion check would seed a pool for a user who never joined.
	if err := s.requireEntrant(ctx, comp.ID, userID); err != nil {
		return eligibility.ResetOutcome{}, err
	}

	remaining, err := s.eligibilityRepo.CountRemaining(ctx, comp.ID, userID)
	if err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("count remaining allowed teams: %w", err)
	}
	if remaining > 0 {
		return eligibility.ResetOutcome{Reset: false, AvailableCount: remaining}, nil
	}

	teamIDs, err := s.activeTeamIDs(ctx, comp.TeamListID)
	if err != nil {
		return eligibility.ResetOutcome{}, err
	}

	outcome, err := s.eligibilityRepo.ResetIfExhausted(ctx, comp.ID, userID, teamIDs)
	if err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("reset allowed teams: %w", err)
	}

	if outcome.Reset {
		s.recordAudit(ctx, audit.Entry{
			CompetitionID: comp.ID,
			UserID:        userID,
			ActorID:       userID,
			Action:        audit.ActionAllowedTeamsReset,
			Detail:        fmt.Sprintf("pool restored to %d teams", outcome.AvailableCount),
			CreatedAt:     s.now().UTC(),
		})
		s.logger.InfoContext(ctx, "allowed teams reset",
			"competition_id", comp.ID,
			"user_id", userID,
			"available", outcome.AvailableCount,
		)
	}

	return outcome, nil
}

// ListAllowedTeams returns the teams currently available to a player,
// resolved against the team catalog.
func (s *EligibilityService) ListAllowedTeams(ctx context.Context, competitionID, userID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EligibilityService.ListAllowedTeams")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	userID = strings.TrimSpace(userID)
	if competitionID == "" || userID == "" {
		return nil, fmt.Errorf("%w: competition_id and user_id are required", ErrInvalidInput)
	}

	ids, err := s.eligibilityRepo.ListTeamIDs(ctx, competitionID, userID)
	if err != nil {
		return nil, fmt.Errorf("list allowed team ids: %w", err)
	}

	teams := make([]team.Team, 0, len(ids))
	for _, id := range ids {
		item, ok, err := s.teamRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get team by id: %w", err)
		}
		if !ok {
			continue
		}
		teams = append(teams, item)
	}

	return teams, nil
}

func (s *EligibilityService) requireEntrant(ctx context.Context, competitionID, userID string) error {
	_, ok, err := s.entrantRepo.GetByCompetitionAndUser(ctx, competitionID, userID)
	if err != nil {
		return fmt.Errorf("get entrant: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s is not in competition %s", ErrNotFound, userID, competitionID)
	}
	return nil
}

func (s *EligibilityService) activeTeamIDs(ctx context.Context, teamListID string) ([]string, error) {
	teams, err := s.teamRepo.ListActiveByTeamList(ctx, teamListID)
	if err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: team list %s has no active teams", ErrInvalidInput, teamListID)
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// seedableTeamIDs is the active list minus teams already consumed by the
// player's picks. A re-run of populate must never hand back a team a live
// pick is holding.
func (s *EligibilityService) seedableTeamIDs(ctx context.Context, comp competition.Competition, userID string) ([]string, error) {
	teams, err := s.teamRepo.ListActiveByTeamList(ctx, comp.TeamListID)
	if err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: team list %s has no active teams", ErrInvalidInput, comp.TeamListID)
	}

	picked := make(map[string]struct{})
	if s.pickRepo != nil {
		picks, err := s.pickRepo.ListByCompetitionAndUser(ctx, comp.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("list picks by competition and user: %w", err)
		}
		for _, p := range picks {
			picked[p.Team] = struct{}{}
		}
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		if _, ok := picked[t.Short]; ok {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *EligibilityService) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", string(entry.Action), "error", err)
	}
}
