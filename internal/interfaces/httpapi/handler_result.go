package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/noodev8/lmslocal/internal/usecase"
)

type setFixtureResultRequest struct {
	Result string `json:"result" validate:"required,oneof=home_win away_win draw"`
}

func (h *Handler) SetFixtureResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetFixtureResult")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	fixtureID := strings.TrimSpace(r.PathValue("fixtureID"))

	var req setFixtureResultRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	fx, err := h.resultService.SetFixtureResult(ctx, usecase.SetFixtureResultInput{
		FixtureID: fixtureID,
		Result:    req.Result,
		ActorID:   principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set fixture result failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(fx))
}

type fixtureOutcomeDTO struct {
	FixtureID        string `json:"fixture_id"`
	Processed        bool   `json:"processed"`
	PicksSettled     int    `json:"picks_settled"`
	LivesLost        int    `json:"lives_lost"`
	Eliminated       int    `json:"eliminated"`
	AlreadyProcessed bool   `json:"already_processed"`
}

func fixtureOutcomeToDTO(o usecase.FixtureProcessOutcome) fixtureOutcomeDTO {
	return fixtureOutcomeDTO{
		FixtureID:        o.FixtureID,
		Processed:        o.Processed,
		PicksSettled:     o.PicksSettled,
		LivesLost:        o.LivesLost,
		Eliminated:       o.Eliminated,
		AlreadyProcessed: o.AlreadyProcessed,
	}
}

func (h *Handler) ProcessFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProcessFixture")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	fixtureID := strings.TrimSpace(r.PathValue("fixtureID"))

	outcome, err := h.resultService.ProcessFixture(ctx, usecase.ProcessFixtureInput{
		FixtureID: fixtureID,
		ActorID:   principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "process fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureOutcomeToDTO(outcome))
}

type processRoundRequest struct {
	MaxWorkers int `json:"max_workers" validate:"omitempty,min=1,max=16"`
}

type roundOutcomeDTO struct {
	RoundID       string              `json:"round_id"`
	Fixtures      []fixtureOutcomeDTO `json:"fixtures"`
	PicksSettled  int                 `json:"picks_settled"`
	LivesLost     int                 `json:"lives_lost"`
	Eliminated    int                 `json:"eliminated"`
	MissedPicks   int                 `json:"missed_picks"`
	SweepApplied  bool                `json:"sweep_applied"`
	SweepSkipped  bool                `json:"sweep_skipped"`
	RemainingOpen int                 `json:"remaining_open"`
}

func (h *Handler) ProcessRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProcessRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	roundID := strings.TrimSpace(r.PathValue("roundID"))

	// The body is optional; an empty read means default worker count.
	var req processRoundRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	if req.MaxWorkers == 0 {
		req.MaxWorkers = h.processWorkers
	}

	outcome, err := h.resultService.ProcessRound(ctx, usecase.ProcessRoundInput{
		RoundID:    roundID,
		ActorID:    principal.UserID,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "process round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	fixtures := make([]fixtureOutcomeDTO, 0, len(outcome.Fixtures))
	for _, fx := range outcome.Fixtures {
		fixtures = append(fixtures, fixtureOutcomeToDTO(fx))
	}

	writeSuccess(ctx, w, http.StatusOK, roundOutcomeDTO{
		RoundID:       outcome.RoundID,
		Fixtures:      fixtures,
		PicksSettled:  outcome.PicksSettled,
		LivesLost:     outcome.LivesLost,
		Eliminated:    outcome.Eliminated,
		MissedPicks:   outcome.MissedPicks,
		SweepApplied:  outcome.SweepApplied,
		SweepSkipped:  outcome.SweepSkipped,
		RemainingOpen: outcome.RemainingOpen,
	})
}
