package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/infrastructure/repository/memory"
)

func TestPickService_SetPick_StoresPickAndConsumesTeam(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	stored, err := svc.SetPick(t.Context(), SetPickInput{
		FixtureID: testFixtureID,
		Side:      "home",
		ActorID:   "alice",
	})
	if err != nil {
		t.Fatalf("set pick failed: %v", err)
	}
	if stored.Team != "ARS" {
		t.Fatalf("unexpected team: %s", stored.Team)
	}
	if stored.SetByAdminID != nil {
		t.Fatalf("player pick should not carry an admin marker")
	}

	if env.allowedTeamIDs(t, "alice")["eng-ars"] {
		t.Fatalf("picked team should be consumed from the allowed pool")
	}

	entries := env.audits.Entries()
	if len(entries) != 1 || entries[0].Action != audit.ActionPickSet {
		t.Fatalf("expected one pick.set audit entry, got %+v", entries)
	}
}

func TestPickService_SetPick_ChangeRestoresPriorTeam(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("first pick failed: %v", err)
	}
	changed, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "away", ActorID: "alice"})
	if err != nil {
		t.Fatalf("change pick failed: %v", err)
	}
	if changed.Team != "CHE" {
		t.Fatalf("unexpected team after change: %s", changed.Team)
	}

	pool := env.allowedTeamIDs(t, "alice")
	if !pool["eng-ars"] {
		t.Fatalf("prior team should be restored to the pool")
	}
	if pool["eng-che"] {
		t.Fatalf("new team should be consumed from the pool")
	}

	// The round still holds exactly one pick for the player.
	picks, err := env.picks.ListByRound(t.Context(), testRound1ID)
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(picks) != 1 {
		t.Fatalf("expected one pick per round per player, got %d", len(picks))
	}

	entries := env.audits.Entries()
	if len(entries) != 2 || entries[1].Action != audit.ActionPickChanged {
		t.Fatalf("expected pick.changed audit entry, got %+v", entries)
	}
}

func TestPickService_SetPick_LockBoundary(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	lock := testBase.Add(time.Hour)

	env.now = lock.Add(-time.Second)
	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("pick just before lock should succeed: %v", err)
	}

	env.now = lock
	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "away", ActorID: "alice"}); !errors.Is(err, ErrRoundLocked) {
		t.Fatalf("pick at lock instant: expected ErrRoundLocked, got %v", err)
	}

	env.now = lock.Add(time.Second)
	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "away", ActorID: "alice"}); !errors.Is(err, ErrRoundLocked) {
		t.Fatalf("pick after lock: expected ErrRoundLocked, got %v", err)
	}
}

func TestPickService_SetPick_OrganiserOverridesLock(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	env.now = testBase.Add(2 * time.Hour)

	stored, err := svc.SetPick(t.Context(), SetPickInput{
		FixtureID:    testFixtureID,
		Side:         "home",
		ActorID:      testOrganiserID,
		TargetUserID: "alice",
	})
	if err != nil {
		t.Fatalf("organiser pick after lock failed: %v", err)
	}
	if stored.SetByAdminID == nil || *stored.SetByAdminID != testOrganiserID {
		t.Fatalf("organiser-set pick should record the admin, got %+v", stored.SetByAdminID)
	}

	entries := env.audits.Entries()
	if len(entries) != 1 || entries[0].Action != audit.ActionPickAdminOverride {
		t.Fatalf("expected pick.admin_override audit entry, got %+v", entries)
	}

	// Admin picks bypass the pool, so the team is not consumed.
	if !env.allowedTeamIDs(t, "alice")["eng-ars"] {
		t.Fatalf("admin-set pick should leave the allowed pool untouched")
	}
}

func TestPickService_SetPick_PlayerCannotPickForAnother(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	env.addEntrant(t, "bob", 1)
	svc := env.pickService(PickPolicy{})

	_, err := svc.SetPick(t.Context(), SetPickInput{
		FixtureID:    testFixtureID,
		Side:         "home",
		ActorID:      "bob",
		TargetUserID: "alice",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPickService_SetPick_NonEntrantRejected(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	svc := env.pickService(PickPolicy{})

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "mallory"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPickService_SetPick_UnknownFixture(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: "fx-missing", Side: "home", ActorID: "alice"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPickService_SetPick_RejectsReusedTeam(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	addSecondRound(t, env)
	svc := env.pickService(PickPolicy{})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("round 1 pick failed: %v", err)
	}

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: "fx-r2-ars-tot", Side: "home", ActorID: "alice"})
	if !errors.Is(err, ErrTeamAlreadyPicked) {
		t.Fatalf("expected ErrTeamAlreadyPicked, got %v", err)
	}
}

func TestPickService_SetPick_AdminBypassPolicyAllowsReuse(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	addSecondRound(t, env)
	svc := env.pickService(PickPolicy{AdminBypassTeamTwice: true})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("round 1 pick failed: %v", err)
	}

	stored, err := svc.SetPick(t.Context(), SetPickInput{
		FixtureID:    "fx-r2-ars-tot",
		Side:         "home",
		ActorID:      testOrganiserID,
		TargetUserID: "alice",
	})
	if err != nil {
		t.Fatalf("organiser reuse with bypass policy failed: %v", err)
	}
	if stored.Team != "ARS" {
		t.Fatalf("unexpected team: %s", stored.Team)
	}
}

func TestPickService_SetPick_RejectsConsumedTeam(t *testing.T) {
	// No-team-twice disabled isolates the allowed-pool gate.
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: false})
	env.addEntrant(t, "alice", 1)
	addSecondRound(t, env)
	svc := env.pickService(PickPolicy{})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("round 1 pick failed: %v", err)
	}

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: "fx-r2-ars-tot", Side: "home", ActorID: "alice"})
	if !errors.Is(err, ErrTeamNotAllowed) {
		t.Fatalf("expected ErrTeamNotAllowed, got %v", err)
	}
}

func TestPickService_SetPick_SameTeamSameRoundIsNoop(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, "alice", 1)
	svc := env.pickService(PickPolicy{})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("first pick failed: %v", err)
	}
	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"}); err != nil {
		t.Fatalf("re-submitting the same pick should succeed: %v", err)
	}
}

// addSecondRound creates round 2 with an Arsenal fixture so reuse rules have
// something to trip on.
func TestPickService_SetPick_PlayingOrganiserConsumesOwnPool(t *testing.T) {
	// No-team-twice disabled isolates the allowed-pool gate.
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: false})
	env.addEntrant(t, testOrganiserID, 1)
	addSecondRound(t, env)
	svc := env.pickService(PickPolicy{})

	stored, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: testOrganiserID})
	if err != nil {
		t.Fatalf("organiser self-pick failed: %v", err)
	}
	if stored.SetByAdminID != nil {
		t.Fatalf("self-pick must not carry an admin marker")
	}
	if env.allowedTeamIDs(t, testOrganiserID)["eng-ars"] {
		t.Fatalf("organiser self-pick must consume the team from the pool")
	}

	entries := env.audits.Entries()
	if len(entries) != 1 || entries[0].Action != audit.ActionPickSet {
		t.Fatalf("expected pick.set audit entry for self-pick, got %+v", entries)
	}

	// The consumed team is gone for the organiser's own next round too.
	_, err = svc.SetPick(t.Context(), SetPickInput{FixtureID: "fx-r2-ars-tot", Side: "home", ActorID: testOrganiserID})
	if !errors.Is(err, ErrTeamNotAllowed) {
		t.Fatalf("expected ErrTeamNotAllowed, got %v", err)
	}
}

func TestPickService_SetPick_BypassPolicyNotForOrganiserSelfPicks(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: true})
	env.addEntrant(t, testOrganiserID, 1)
	addSecondRound(t, env)
	svc := env.pickService(PickPolicy{AdminBypassTeamTwice: true})

	if _, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: testOrganiserID}); err != nil {
		t.Fatalf("round 1 self-pick failed: %v", err)
	}

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: "fx-r2-ars-tot", Side: "home", ActorID: testOrganiserID})
	if !errors.Is(err, ErrTeamAlreadyPicked) {
		t.Fatalf("expected ErrTeamAlreadyPicked for organiser self-reuse, got %v", err)
	}
}

func TestPickService_SetPick_PoolRaceLoserGetsTeamNotAllowed(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{lives: 1, noTeamTwice: false})
	env.addEntrant(t, "alice", 1)
	addSecondRound(t, env)

	// A rival pick for the same player lands between the service's
	// eligibility read and the transactional save and takes the last team.
	repo := &racingPickRepository{
		PickRepository: env.picks,
		rival: pick.Pick{
			ID:        "pick-rival",
			RoundID:   "round-2",
			UserID:    "alice",
			Team:      "ARS",
			FixtureID: "fx-r2-ars-tot",
			CreatedAt: testBase,
		},
		rivalExchange: &pick.EligibilityExchange{
			CompetitionID: testCompetitionID,
			TeamListID:    memory.TeamListIDPremierLeague,
			ConsumeTeamID: "eng-ars",
		},
	}
	svc := NewPickService(env.comps, env.rounds, env.fixtures, repo, env.entrants, env.pool, env.teams, env.ids, PickPolicy{}, nil)
	svc.SetNow(env.timeNow)

	_, err := svc.SetPick(t.Context(), SetPickInput{FixtureID: testFixtureID, Side: "home", ActorID: "alice"})
	if !errors.Is(err, ErrTeamNotAllowed) {
		t.Fatalf("expected ErrTeamNotAllowed after losing the pool race, got %v", err)
	}
}

// racingPickRepository injects a rival pick ahead of the first save, the way
// a concurrent request committing first would.
type racingPickRepository struct {
	*memory.PickRepository
	rival         pick.Pick
	rivalExchange *pick.EligibilityExchange
	once          sync.Once
}

func (r *racingPickRepository) Save(ctx context.Context, item pick.Pick, exchange *pick.EligibilityExchange, entry audit.Entry) (pick.Pick, error) {
	var rivalErr error
	r.once.Do(func() {
		_, rivalErr = r.PickRepository.Save(ctx, r.rival, r.rivalExchange, audit.Entry{
			CompetitionID: r.rivalExchange.CompetitionID,
			UserID:        r.rival.UserID,
			ActorID:       r.rival.UserID,
			Action:        audit.ActionPickSet,
			CreatedAt:     r.rival.CreatedAt,
		})
	})
	if rivalErr != nil {
		return pick.Pick{}, rivalErr
	}
	return r.PickRepository.Save(ctx, item, exchange, entry)
}

func addSecondRound(t *testing.T, env *testEnv) {
	t.Helper()

	err := env.rounds.Create(t.Context(), round.Round{
		ID:            "round-2",
		CompetitionID: testCompetitionID,
		Number:        2,
		LockTime:      testBase.Add(8 * 24 * time.Hour),
		CreatedAt:     testBase,
	})
	if err != nil {
		t.Fatalf("create round 2: %v", err)
	}

	err = env.fixtures.Create(t.Context(), fixture.Fixture{
		ID:        "fx-r2-ars-tot",
		RoundID:   "round-2",
		HomeTeam:  "Arsenal",
		AwayTeam:  "Tottenham Hotspur",
		HomeShort: "ARS",
		AwayShort: "TOT",
		KickoffAt: testBase.Add(8*24*time.Hour + 2*time.Hour),
	})
	if err != nil {
		t.Fatalf("create round 2 fixture: %v", err)
	}
}
