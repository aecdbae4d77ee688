package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/noodev8/lmslocal/internal/domain/competition"
	competitionmock "github.com/noodev8/lmslocal/internal/mocks/domain/competition"
	teammock "github.com/noodev8/lmslocal/internal/mocks/domain/team"
	"github.com/noodev8/lmslocal/internal/platform/logging"
)

func TestCompetitionService_Get_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	competitionRepo := competitionmock.NewRepository(t)
	teamRepo := teammock.NewRepository(t)

	service := NewCompetitionService(competitionRepo, teamRepo, nil, nil, nil, nil, nil, logging.NewNop())

	code := "KMNPQ234"
	want := competition.Competition{
		ID:             "comp-2026-spring",
		Name:           "Crown & Anchor LMS",
		Status:         competition.StatusSetup,
		OrganiserID:    "user-organiser",
		TeamListID:     "list-epl",
		LivesPerPlayer: 1,
		NoTeamTwice:    true,
		InviteCode:     &code,
		CreatedAt:      time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	competitionRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), want.ID).
		Return(want, true, nil).
		Once()

	got, err := service.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if got.ID != want.ID || got.Name != want.Name {
		t.Fatalf("unexpected competition: %+v", got)
	}
	if !got.RegistrationOpen() {
		t.Fatalf("expected registration open while invite code is set")
	}
}

func TestCompetitionService_Get_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	competitionRepo := competitionmock.NewRepository(t)
	teamRepo := teammock.NewRepository(t)

	service := NewCompetitionService(competitionRepo, teamRepo, nil, nil, nil, nil, nil, logging.NewNop())

	competitionRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "missing-competition").
		Return(competition.Competition{}, false, nil).
		Once()

	_, err := service.Get(ctx, "missing-competition")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompetitionService_Create_EmptyTeamListUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	competitionRepo := competitionmock.NewRepository(t)
	teamRepo := teammock.NewRepository(t)

	service := NewCompetitionService(competitionRepo, teamRepo, nil, nil, nil, nil, nil, logging.NewNop())

	teamRepo.
		On("ListActiveByTeamList", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "list-empty").
		Return(nil, nil).
		Once()

	_, err := service.Create(ctx, CreateCompetitionInput{
		Name:           "No Teams League",
		OrganiserID:    "user-organiser",
		TeamListID:     "list-empty",
		LivesPerPlayer: 1,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty team list, got %v", err)
	}
}
