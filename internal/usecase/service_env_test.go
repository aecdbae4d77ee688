package usecase

import (
	"testing"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/competition"
	"github.com/noodev8/lmslocal/internal/domain/entrant"
	"github.com/noodev8/lmslocal/internal/domain/fixture"
	"github.com/noodev8/lmslocal/internal/domain/round"
	"github.com/noodev8/lmslocal/internal/infrastructure/repository/memory"
	idgen "github.com/noodev8/lmslocal/internal/platform/id"
)

const (
	testCompetitionID = "comp-1"
	testOrganiserID   = "org-1"
	testInviteCode    = "JOINCODE"
	testRound1ID      = "round-1"
	testFixtureID     = "fx-ars-che"
	testFixture2ID    = "fx-liv-mun"
)

// testBase is the reference instant every test clock starts from. Round 1
// locks one hour after it.
var testBase = time.Date(2025, 8, 9, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	comps    *memory.CompetitionRepository
	teams    *memory.TeamRepository
	rounds   *memory.RoundRepository
	fixtures *memory.FixtureRepository
	pool     *memory.EligibilityRepository
	audits   *memory.AuditRepository
	picks    *memory.PickRepository
	entrants *memory.EntrantRepository
	ids      idgen.Generator

	// now is the fake clock; tests move it directly.
	now time.Time
}

type testEnvOptions struct {
	lives       int
	noTeamTwice bool
}

func newTestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()

	if opts.lives == 0 {
		opts.lives = 1
	}

	code := testInviteCode
	comps := memory.NewCompetitionRepository([]competition.Competition{{
		ID:             testCompetitionID,
		Name:           "The Red Lion Last Man Standing",
		Status:         competition.StatusUnlocked,
		OrganiserID:    testOrganiserID,
		TeamListID:     memory.TeamListIDPremierLeague,
		LivesPerPlayer: opts.lives,
		NoTeamTwice:    opts.noTeamTwice,
		InviteCode:     &code,
		CreatedAt:      testBase,
	}})

	teams := memory.NewTeamRepository(memory.SeedTeams())
	rounds := memory.NewRoundRepository(comps, []round.Round{{
		ID:            testRound1ID,
		CompetitionID: testCompetitionID,
		Number:        1,
		LockTime:      testBase.Add(time.Hour),
		CreatedAt:     testBase,
	}})
	fixtures := memory.NewFixtureRepository([]fixture.Fixture{
		{
			ID:        testFixtureID,
			RoundID:   testRound1ID,
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			HomeShort: "ARS",
			AwayShort: "CHE",
			KickoffAt: testBase.Add(2 * time.Hour),
		},
		{
			ID:        testFixture2ID,
			RoundID:   testRound1ID,
			HomeTeam:  "Liverpool",
			AwayTeam:  "Manchester United",
			HomeShort: "LIV",
			AwayShort: "MUN",
			KickoffAt: testBase.Add(2 * time.Hour),
		},
	})

	pool := memory.NewEligibilityRepository()
	audits := memory.NewAuditRepository()
	picks := memory.NewPickRepository(rounds, teams, pool, audits)
	entrants := memory.NewEntrantRepository(fixtures, rounds)

	return &testEnv{
		comps:    comps,
		teams:    teams,
		rounds:   rounds,
		fixtures: fixtures,
		pool:     pool,
		audits:   audits,
		picks:    picks,
		entrants: entrants,
		ids:      idgen.NewRandomGenerator(),
		now:      testBase,
	}
}

func (e *testEnv) timeNow() time.Time {
	return e.now
}

// createEntrant registers the player without seeding an allowed pool.
func (e *testEnv) createEntrant(t *testing.T, userID string, lives int) {
	t.Helper()

	err := e.entrants.Create(t.Context(), entrant.Entrant{
		CompetitionID:  testCompetitionID,
		UserID:         userID,
		Status:         entrant.StatusActive,
		LivesRemaining: lives,
		JoinedAt:       testBase,
	})
	if err != nil {
		t.Fatalf("create entrant %s: %v", userID, err)
	}
}

func (e *testEnv) addEntrant(t *testing.T, userID string, lives int) {
	t.Helper()

	e.createEntrant(t, userID, lives)

	svc := e.eligibilityService()
	if _, err := svc.PopulateAllowedTeams(t.Context(), testCompetitionID, userID); err != nil {
		t.Fatalf("populate allowed teams for %s: %v", userID, err)
	}
}

func (e *testEnv) pickService(policy PickPolicy) *PickService {
	svc := NewPickService(e.comps, e.rounds, e.fixtures, e.picks, e.entrants, e.pool, e.teams, e.ids, policy, nil)
	svc.SetNow(e.timeNow)
	return svc
}

func (e *testEnv) roundService() *RoundService {
	svc := NewRoundService(e.comps, e.rounds, e.fixtures, e.audits, e.ids, nil)
	svc.SetNow(e.timeNow)
	return svc
}

func (e *testEnv) resultService() *ResultService {
	svc := NewResultService(e.comps, e.rounds, e.fixtures, e.picks, e.entrants, e.audits, nil)
	svc.SetNow(e.timeNow)
	return svc
}

func (e *testEnv) eligibilityService() *EligibilityService {
	svc := NewEligibilityService(e.comps, e.teams, e.pool, e.picks, e.entrants, e.audits, nil)
	svc.SetNow(e.timeNow)
	return svc
}

func (e *testEnv) competitionService() *CompetitionService {
	svc := NewCompetitionService(e.comps, e.teams, e.rounds, e.entrants, e.audits, e.eligibilityService(), e.ids, nil)
	svc.SetNow(e.timeNow)
	return svc
}

func (e *testEnv) entrantState(t *testing.T, userID string) entrant.Entrant {
	t.Helper()

	ent, ok, err := e.entrants.GetByCompetitionAndUser(t.Context(), testCompetitionID, userID)
	if err != nil {
		t.Fatalf("get entrant %s: %v", userID, err)
	}
	if !ok {
		t.Fatalf("entrant %s not found", userID)
	}
	return ent
}

func (e *testEnv) allowedTeamIDs(t *testing.T, userID string) map[string]bool {
	t.Helper()

	ids, err := e.pool.ListTeamIDs(t.Context(), testCompetitionID, userID)
	if err != nil {
		t.Fatalf("list allowed teams for %s: %v", userID, err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
