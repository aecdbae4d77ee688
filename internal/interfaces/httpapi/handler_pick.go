package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/noodev8/lmslocal/internal/usecase"
)

type setPickRequest struct {
	FixtureID string `json:"fixture_id" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=home away"`
	// UserID targets another player's pick; organiser only. Empty means the
	// caller picks for themselves.
	UserID string `json:"user_id" validate:"omitempty,max=100"`
}

func (h *Handler) SetPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req setPickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	stored, err := h.pickService.SetPick(ctx, usecase.SetPickInput{
		FixtureID:    req.FixtureID,
		Side:         req.Side,
		ActorID:      principal.UserID,
		TargetUserID: req.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set pick failed", "fixture_id", req.FixtureID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(stored))
}

func (h *Handler) GetMyPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	roundID := strings.TrimSpace(r.PathValue("roundID"))

	item, exists, err := h.pickService.GetPick(ctx, roundID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get pick failed", "round_id", roundID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !exists {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(item))
}
