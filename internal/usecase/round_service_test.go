package usecase

import (
	"errors"
	"testing"
	"time"
)

func TestRoundService_UpdateLockTime_PastLockClearsInviteCode(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	env.now = testBase.Add(30 * time.Minute)
	if _, err := svc.UpdateLockTime(t.Context(), UpdateRoundLockTimeInput{
		RoundID:  testRound1ID,
		LockTime: env.now.Add(-time.Minute),
		ActorID:  testOrganiserID,
	}); err != nil {
		t.Fatalf("update lock time failed: %v", err)
	}

	comp, ok, err := env.comps.GetByID(t.Context(), testCompetitionID)
	if err != nil || !ok {
		t.Fatalf("get competition: ok=%t err=%v", ok, err)
	}
	if comp.InviteCode != nil {
		t.Fatalf("invite code should be cleared once round 1 locks in the past")
	}
	if comp.RegistrationOpen() {
		t.Fatalf("registration should be closed")
	}
}

func TestRoundService_UpdateLockTime_FutureLockKeepsInviteCode(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	if _, err := svc.UpdateLockTime(t.Context(), UpdateRoundLockTimeInput{
		RoundID:  testRound1ID,
		LockTime: testBase.Add(3 * time.Hour),
		ActorID:  testOrganiserID,
	}); err != nil {
		t.Fatalf("update lock time failed: %v", err)
	}

	comp, ok, err := env.comps.GetByID(t.Context(), testCompetitionID)
	if err != nil || !ok {
		t.Fatalf("get competition: ok=%t err=%v", ok, err)
	}
	if !comp.RegistrationOpen() {
		t.Fatalf("moving the lock into the future must keep registration open")
	}

	rnd, ok, err := env.rounds.GetByID(t.Context(), testRound1ID)
	if err != nil || !ok {
		t.Fatalf("get round: ok=%t err=%v", ok, err)
	}
	if !rnd.LockTime.Equal(testBase.Add(3 * time.Hour)) {
		t.Fatalf("unexpected lock time: %v", rnd.LockTime)
	}
}

func TestRoundService_UpdateLockTime_OrganiserOnly(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	env.addEntrant(t, "alice", 1)
	svc := env.roundService()

	_, err := svc.UpdateLockTime(t.Context(), UpdateRoundLockTimeInput{
		RoundID:  testRound1ID,
		LockTime: testBase.Add(3 * time.Hour),
		ActorID:  "alice",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRoundService_CreateRound_RequiresPreviousRound(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	_, err := svc.CreateRound(t.Context(), CreateRoundInput{
		CompetitionID: testCompetitionID,
		Number:        3,
		LockTime:      testBase.Add(14 * 24 * time.Hour),
		ActorID:       testOrganiserID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a gap in round numbers, got %v", err)
	}

	created, err := svc.CreateRound(t.Context(), CreateRoundInput{
		CompetitionID: testCompetitionID,
		Number:        2,
		LockTime:      testBase.Add(7 * 24 * time.Hour),
		ActorID:       testOrganiserID,
	})
	if err != nil {
		t.Fatalf("create round 2 failed: %v", err)
	}
	if created.Number != 2 {
		t.Fatalf("unexpected round number: %d", created.Number)
	}
}

func TestRoundService_CreateRound_RejectsDuplicateNumber(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	_, err := svc.CreateRound(t.Context(), CreateRoundInput{
		CompetitionID: testCompetitionID,
		Number:        1,
		LockTime:      testBase.Add(3 * time.Hour),
		ActorID:       testOrganiserID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate round number, got %v", err)
	}
}

func TestRoundService_CreateFixture_RejectsLockedRound(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	env.now = testBase.Add(2 * time.Hour)
	_, err := svc.CreateFixture(t.Context(), CreateFixtureInput{
		RoundID:   testRound1ID,
		HomeTeam:  "Everton",
		AwayTeam:  "West Ham United",
		HomeShort: "EVE",
		AwayShort: "WHU",
		KickoffAt: testBase.Add(3 * time.Hour),
		ActorID:   testOrganiserID,
	})
	if !errors.Is(err, ErrRoundLocked) {
		t.Fatalf("expected ErrRoundLocked, got %v", err)
	}
}

func TestRoundService_CreateFixture_AddsToOpenRound(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1})
	svc := env.roundService()

	fx, err := svc.CreateFixture(t.Context(), CreateFixtureInput{
		RoundID:   testRound1ID,
		HomeTeam:  "Everton",
		AwayTeam:  "West Ham United",
		HomeShort: "eve",
		AwayShort: "whu",
		KickoffAt: testBase.Add(3 * time.Hour),
		ActorID:   testOrganiserID,
	})
	if err != nil {
		t.Fatalf("create fixture failed: %v", err)
	}
	if fx.HomeShort != "EVE" || fx.AwayShort != "WHU" {
		t.Fatalf("short codes should be normalised, got %s/%s", fx.HomeShort, fx.AwayShort)
	}

	fixtures, err := svc.ListFixtures(t.Context(), testRound1ID)
	if err != nil {
		t.Fatalf("list fixtures failed: %v", err)
	}
	if len(fixtures) != 3 {
		t.Fatalf("expected three fixtures, got %d", len(fixtures))
	}
}
