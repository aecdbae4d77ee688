package usecase

import (
	"errors"
	"testing"
)

func TestEligibilityService_PopulateAllowedTeams_Idempotent(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.createEntrant(t, "alice", 1)
	svc := env.eligibilityService()

	first, err := svc.PopulateAllowedTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("populate failed: %v", err)
	}
	if first != 10 {
		t.Fatalf("expected 10 inserts, got %d", first)
	}

	second, err := svc.PopulateAllowedTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("second populate failed: %v", err)
	}
	if second != 0 {
		t.Fatalf("second populate must insert nothing, got %d", second)
	}
}

func TestEligibilityService_PopulateAllowedTeams_DoesNotRestoreConsumed(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.addEntrant(t, "alice", 1)
	pickSvc := env.pickService(PickPolicy{})

	if _, err := pickSvc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	svc := env.eligibilityService()
	inserted, err := svc.PopulateAllowedTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("populate failed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("populate must not resurrect a consumed team, inserted %d", inserted)
	}
	if env.allowedTeamIDs(t, "alice")["eng-ars"] {
		t.Fatalf("consumed team must stay out of the pool")
	}
}

func TestEligibilityService_CheckAndResetTeams_RestoresExhaustedPool(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.createEntrant(t, "alice", 1)
	svc := env.eligibilityService()

	// An entrant whose pool was never seeded counts as exhausted.
	outcome, err := svc.CheckAndResetTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("check and reset failed: %v", err)
	}
	if !outcome.Reset || outcome.AvailableCount != 10 {
		t.Fatalf("expected a full reset, got %+v", outcome)
	}
}

func TestEligibilityService_CheckAndResetTeams_LeavesPartialPoolAlone(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.addEntrant(t, "alice", 1)
	pickSvc := env.pickService(PickPolicy{})

	if _, err := pickSvc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	svc := env.eligibilityService()
	outcome, err := svc.CheckAndResetTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("check and reset failed: %v", err)
	}
	if outcome.Reset || outcome.AvailableCount != 9 {
		t.Fatalf("partial pool must not reset, got %+v", outcome)
	}
}

func TestEligibilityService_ListAllowedTeams(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.addEntrant(t, "alice", 1)
	svc := env.eligibilityService()

	teams, err := svc.ListAllowedTeams(t.Context(), testCompetitionID, "alice")
	if err != nil {
		t.Fatalf("list allowed teams failed: %v", err)
	}
	if len(teams) != 10 {
		t.Fatalf("expected 10 teams, got %d", len(teams))
	}
}

func TestEligibilityService_NonEntrantRejected(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.eligibilityService()

	if _, err := svc.CheckAndResetTeams(t.Context(), testCompetitionID, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-entrant reset check, got %v", err)
	}
	if _, err := svc.PopulateAllowedTeams(t.Context(), testCompetitionID, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-entrant populate, got %v", err)
	}

	// Neither call may leave a pool behind for a user who never joined.
	remaining, err := env.pool.CountRemaining(t.Context(), testCompetitionID, "mallory")
	if err != nil {
		t.Fatalf("count remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("non-entrant pool must stay empty, got %d", remaining)
	}
}

func TestEligibilityService_UnknownCompetition(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.eligibilityService()

	if _, err := svc.PopulateAllowedTeams(t.Context(), "comp-missing", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
