package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/infrastructure/repository/memory"
)

func TestCompetitionService_Create_SeedsOrganiserWhenPlaying(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.competitionService()

	comp, err := svc.Create(t.Context(), CreateCompetitionInput{
		Name:           "Dog and Duck LMS",
		OrganiserID:    "org-2",
		TeamListID:     memory.TeamListIDPremierLeague,
		LivesPerPlayer: 2,
		NoTeamTwice:    true,
		OrganiserPlays: true,
	})
	if err != nil {
		t.Fatalf("create competition failed: %v", err)
	}
	if !comp.RegistrationOpen() {
		t.Fatalf("new competition must start with an invite code")
	}
	if comp.LivesPerPlayer != 2 {
		t.Fatalf("unexpected lives: %d", comp.LivesPerPlayer)
	}

	ent, ok, err := env.entrants.GetByCompetitionAndUser(t.Context(), comp.ID, "org-2")
	if err != nil || !ok {
		t.Fatalf("organiser entrant missing: ok=%t err=%v", ok, err)
	}
	if ent.LivesRemaining != 2 {
		t.Fatalf("organiser entrant lives: %d", ent.LivesRemaining)
	}

	ids, err := env.pool.ListTeamIDs(t.Context(), comp.ID, "org-2")
	if err != nil {
		t.Fatalf("list allowed teams: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("organiser pool should be seeded, got %d teams", len(ids))
	}
}

func TestCompetitionService_Join_CreatesEntrantWithPool(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.competitionService()

	ent, err := svc.Join(t.Context(), JoinCompetitionInput{InviteCode: testInviteCode, UserID: "carol"})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if ent.LivesRemaining != 1 || ent.Status != entrant.StatusActive {
		t.Fatalf("unexpected entrant: %+v", ent)
	}

	ids, err := env.pool.ListTeamIDs(t.Context(), testCompetitionID, "carol")
	if err != nil {
		t.Fatalf("list allowed teams: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("joining should seed the allowed pool, got %d", len(ids))
	}

	// Joining again is a no-op.
	again, err := svc.Join(t.Context(), JoinCompetitionInput{InviteCode: testInviteCode, UserID: "carol"})
	if err != nil {
		t.Fatalf("repeat join failed: %v", err)
	}
	if again.JoinedAt != ent.JoinedAt {
		t.Fatalf("repeat join must return the existing entrant")
	}
}

func TestCompetitionService_Join_UnknownCode(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.competitionService()

	_, err := svc.Join(t.Context(), JoinCompetitionInput{InviteCode: "NOPE", UserID: "carol"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompetitionService_Join_ClosedAfterRoundOneLocks(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.competitionService()

	// The code is still present but round 1's lock time has passed.
	env.now = testBase.Add(2 * time.Hour)
	_, err := svc.Join(t.Context(), JoinCompetitionInput{InviteCode: testInviteCode, UserID: "carol"})
	if !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestCompetitionService_Standings_OrdersSurvivorsFirst(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 2})
	env.addEntrant(t, "alice", 2)
	env.addEntrant(t, "bob", 1)
	env.addEntrant(t, "carol", 2)
	svc := env.competitionService()

	// Knock bob out.
	bob := env.entrantState(t, "bob").ApplyLoss()
	ok, err := env.entrants.ApplyFixtureOutcomes(t.Context(), testCompetitionID, testFixtureID, []entrant.LivesUpdate{{
		UserID:         "bob",
		LivesRemaining: bob.LivesRemaining,
		Status:         bob.Status,
	}})
	if err != nil || !ok {
		t.Fatalf("apply outcome: ok=%t err=%v", ok, err)
	}

	rows, err := svc.Standings(t.Context(), testCompetitionID)
	if err != nil {
		t.Fatalf("standings failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[len(rows)-1].UserID != "bob" || rows[len(rows)-1].Status != entrant.StatusOut {
		t.Fatalf("eliminated entrant should sort last, got %+v", rows)
	}
}

func TestCompetitionService_ReinstateEntrant(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.addEntrant(t, "bob", 1)
	svc := env.competitionService()

	bob := env.entrantState(t, "bob").ApplyLoss()
	ok, err := env.entrants.ApplyFixtureOutcomes(t.Context(), testCompetitionID, testFixtureID, []entrant.LivesUpdate{{
		UserID:         "bob",
		LivesRemaining: bob.LivesRemaining,
		Status:         bob.Status,
	}})
	if err != nil || !ok {
		t.Fatalf("apply outcome: ok=%t err=%v", ok, err)
	}

	if _, err := svc.ReinstateEntrant(t.Context(), ReinstateEntrantInput{
		CompetitionID: testCompetitionID,
		UserID:        "bob",
		Lives:         1,
		ActorID:       "bob",
	}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("players cannot reinstate themselves, got %v", err)
	}

	restored, err := svc.ReinstateEntrant(t.Context(), ReinstateEntrantInput{
		CompetitionID: testCompetitionID,
		UserID:        "bob",
		Lives:         1,
		ActorID:       testOrganiserID,
	})
	if err != nil {
		t.Fatalf("reinstate failed: %v", err)
	}
	if restored.Status != entrant.StatusActive || restored.LivesRemaining != 1 {
		t.Fatalf("unexpected entrant after reinstatement: %+v", restored)
	}
}
