package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noodev8/lmslocal/internal/usecase"
)

type createRoundRequest struct {
	Number   int       `json:"number" validate:"required,min=1"`
	LockTime time.Time `json:"lock_time" validate:"required"`
}

func (h *Handler) CreateRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	competitionID := strings.TrimSpace(r.PathValue("competitionID"))

	var req createRoundRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	rnd, err := h.roundService.CreateRound(ctx, usecase.CreateRoundInput{
		CompetitionID: competitionID,
		Number:        req.Number,
		LockTime:      req.LockTime,
		ActorID:       principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create round failed", "competition_id", competitionID, "round_number", req.Number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, roundToDTO(rnd))
}

type updateLockTimeRequest struct {
	LockTime time.Time `json:"lock_time" validate:"required"`
}

func (h *Handler) UpdateRoundLockTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateRoundLockTime")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	roundID := strings.TrimSpace(r.PathValue("roundID"))

	var req updateLockTimeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	rnd, err := h.roundService.UpdateLockTime(ctx, usecase.UpdateRoundLockTimeInput{
		RoundID:  roundID,
		LockTime: req.LockTime,
		ActorID:  principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update lock time failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(rnd))
}

type createFixtureRequest struct {
	HomeTeam  string    `json:"home_team" validate:"omitempty,max=100"`
	AwayTeam  string    `json:"away_team" validate:"omitempty,max=100"`
	HomeShort string    `json:"home_short" validate:"required,max=8"`
	AwayShort string    `json:"away_short" validate:"required,max=8"`
	KickoffAt time.Time `json:"kickoff_at" validate:"required"`
}

func (h *Handler) CreateFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateFixture")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	roundID := strings.TrimSpace(r.PathValue("roundID"))

	var req createFixtureRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	fx, err := h.roundService.CreateFixture(ctx, usecase.CreateFixtureInput{
		RoundID:   roundID,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		HomeShort: req.HomeShort,
		AwayShort: req.AwayShort,
		KickoffAt: req.KickoffAt,
		ActorID:   principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create fixture failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtureToDTO(fx))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	fixtures, err := h.roundService.ListFixtures(ctx, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, fx := range fixtures {
		items = append(items, fixtureToDTO(fx))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
