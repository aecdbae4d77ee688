package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/domain/team"
	"github.com/noodev8/lmslocal/internal/platform/logging"
	"github.com/noodev8/lmslocal/internal/usecase"
)

type Handler struct {
	competitionService *usecase.CompetitionService
	roundService       *usecase.RoundService
	pickService        *usecase.PickService
	resultService      *usecase.ResultService
	eligibilityService *usecase.EligibilityService
	processWorkers     int
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	competitionService *usecase.CompetitionService,
	roundService *usecase.RoundService,
	pickService *usecase.PickService,
	resultService *usecase.ResultService,
	eligibilityService *usecase.EligibilityService,
	processWorkers int,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		competitionService: competitionService,
		roundService:       roundService,
		pickService:        pickService,
		resultService:      resultService,
		eligibilityService: eligibilityService,
		processWorkers:     processWorkers,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, target)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type competitionDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	OrganiserID    string    `json:"organiser_id"`
	TeamListID     string    `json:"team_list_id"`
	LivesPerPlayer int       `json:"lives_per_player"`
	NoTeamTwice    bool      `json:"no_team_twice"`
	InviteCode     *string   `json:"invite_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func competitionToDTO(c competition.Competition) competitionDTO {
	return competitionDTO{
		ID:             c.ID,
		Name:           c.Name,
		Status:         string(c.Status),
		OrganiserID:    c.OrganiserID,
		TeamListID:     c.TeamListID,
		LivesPerPlayer: c.LivesPerPlayer,
		NoTeamTwice:    c.NoTeamTwice,
		InviteCode:     c.InviteCode,
		CreatedAt:      c.CreatedAt,
	}
}

type entrantDTO struct {
	CompetitionID  string    `json:"competition_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	LivesRemaining int       `json:"lives_remaining"`
	JoinedAt       time.Time `json:"joined_at"`
}

func entrantToDTO(e entrant.Entrant) entrantDTO {
	return entrantDTO{
		CompetitionID:  e.CompetitionID,
		UserID:         e.UserID,
		Status:         string(e.Status),
		LivesRemaining: e.LivesRemaining,
		JoinedAt:       e.JoinedAt,
	}
}

type standingRowDTO struct {
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	LivesRemaining int       `json:"lives_remaining"`
	JoinedAt       time.Time `json:"joined_at"`
}

type roundDTO struct {
	ID            string     `json:"id"`
	CompetitionID string     `json:"competition_id"`
	Number        int        `json:"number"`
	LockTime      time.Time  `json:"lock_time"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func roundToDTO(r round.Round) roundDTO {
	return roundDTO{
		ID:            r.ID,
		CompetitionID: r.CompetitionID,
		Number:        r.Number,
		LockTime:      r.LockTime,
		ProcessedAt:   r.ProcessedAt,
		CreatedAt:     r.CreatedAt,
	}
}

type fixtureDTO struct {
	ID          string     `json:"id"`
	RoundID     string     `json:"round_id"`
	HomeTeam    string     `json:"home_team"`
	AwayTeam    string     `json:"away_team"`
	HomeShort   string     `json:"home_short"`
	AwayShort   string     `json:"away_short"`
	KickoffAt   time.Time  `json:"kickoff_at"`
	Result      *string    `json:"result,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func fixtureToDTO(f fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:          f.ID,
		RoundID:     f.RoundID,
		HomeTeam:    f.HomeTeam,
		AwayTeam:    f.AwayTeam,
		HomeShort:   f.HomeShort,
		AwayShort:   f.AwayShort,
		KickoffAt:   f.KickoffAt,
		Result:      f.Result,
		ProcessedAt: f.ProcessedAt,
	}
}

type pickDTO struct {
	ID           string    `json:"id"`
	RoundID      string    `json:"round_id"`
	UserID       string    `json:"user_id"`
	Team         string    `json:"team"`
	FixtureID    string    `json:"fixture_id"`
	SetByAdminID *string   `json:"set_by_admin_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func pickToDTO(p pick.Pick) pickDTO {
	return pickDTO{
		ID:           p.ID,
		RoundID:      p.RoundID,
		UserID:       p.UserID,
		Team:         p.Team,
		FixtureID:    p.FixtureID,
		SetByAdminID: p.SetByAdminID,
		CreatedAt:    p.CreatedAt,
	}
}

type teamDTO struct {
	ID         string `json:"id"`
	TeamListID string `json:"team_list_id"`
	Name       string `json:"name"`
	Short      string `json:"short"`
	Active     bool   `json:"active"`
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:         t.ID,
		TeamListID: t.TeamListID,
		Name:       t.Name,
		Short:      t.Short,
		Active:     t.Active,
	}
}
