package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/noodev8/lmslocal/internal/usecase"
)

type createCompetitionRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	TeamListID     string `json:"team_list_id" validate:"required"`
	LivesPerPlayer int    `json:"lives_per_player" validate:"required,min=1,max=10"`
	NoTeamTwice    bool   `json:"no_team_twice"`
	OrganiserPlays bool   `json:"organiser_plays"`
}

func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetition")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createCompetitionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	comp, err := h.competitionService.Create(ctx, usecase.CreateCompetitionInput{
		Name:           req.Name,
		OrganiserID:    principal.UserID,
		TeamListID:     req.TeamListID,
		LivesPerPlayer: req.LivesPerPlayer,
		NoTeamTwice:    req.NoTeamTwice,
		OrganiserPlays: req.OrganiserPlays,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create competition failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, competitionToDTO(comp))
}

func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetition")
	defer span.End()

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	comp, err := h.competitionService.Get(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto := competitionToDTO(comp)
	// The invite code is the organiser's to share, not the table's.
	if principal, ok := principalFromContext(ctx); !ok || principal.UserID != comp.OrganiserID {
		dto.InviteCode = nil
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

type joinCompetitionRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=32"`
}

func (h *Handler) JoinCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinCompetition")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req joinCompetitionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	ent, err := h.competitionService.Join(ctx, usecase.JoinCompetitionInput{
		InviteCode: req.InviteCode,
		UserID:     principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join competition failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, entrantToDTO(ent))
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	rows, err := h.competitionService.Standings(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, standingRowDTO{
			UserID:         row.UserID,
			Status:         string(row.Status),
			LivesRemaining: row.LivesRemaining,
			JoinedAt:       row.JoinedAt,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type reinstateEntrantRequest struct {
	Lives int `json:"lives" validate:"required,min=1,max=10"`
}

func (h *Handler) ReinstateEntrant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReinstateEntrant")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	var req reinstateEntrantRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	ent, err := h.competitionService.ReinstateEntrant(ctx, usecase.ReinstateEntrantInput{
		CompetitionID: competitionID,
		UserID:        userID,
		Lives:         req.Lives,
		ActorID:       principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reinstate entrant failed", "competition_id", competitionID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entrantToDTO(ent))
}

func (h *Handler) ListMyAllowedTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyAllowedTeams")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	competitionID := strings.TrimSpace(r.PathValue("competitionID"))

	teams, err := h.eligibilityService.ListAllowedTeams(ctx, competitionID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list allowed teams failed", "competition_id", competitionID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type allowedTeamsResetDTO struct {
	Reset          bool `json:"reset"`
	AvailableCount int  `json:"available_count"`
}

// CheckMyAllowedTeams re-seeds the caller's pool if every team has been
// consumed, then reports how many remain.
func (h *Handler) CheckMyAllowedTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckMyAllowedTeams")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	competitionID := strings.TrimSpace(r.PathValue("competitionID"))

	outcome, err := h.eligibilityService.CheckAndResetTeams(ctx, competitionID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "allowed teams reset check failed", "competition_id", competitionID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, allowedTeamsResetDTO{
		Reset:          outcome.Reset,
		AvailableCount: outcome.AvailableCount,
	})
}
