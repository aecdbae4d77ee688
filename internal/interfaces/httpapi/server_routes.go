package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerCompetitionRoutes(mux, handler, verifier)
	registerRoundRoutes(mux, handler, verifier)
	registerPickRoutes(mux, handler, verifier)
	registerResultRoutes(mux, handler, verifier)
}

func registerCompetitionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/competitions", RequireAuth(verifier, http.HandlerFunc(handler.CreateCompetition)))
	mux.Handle("GET /v1/competitions/{competitionID}", RequireAuth(verifier, http.HandlerFunc(handler.GetCompetition)))
	mux.Handle("POST /v1/competitions/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinCompetition)))
	mux.Handle("GET /v1/competitions/{competitionID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.ListStandings)))
	mux.Handle("POST /v1/competitions/{competitionID}/entrants/{userID}/reinstate", RequireAuth(verifier, http.HandlerFunc(handler.ReinstateEntrant)))
	mux.Handle("GET /v1/competitions/{competitionID}/allowed-teams/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyAllowedTeams)))
	mux.Handle("POST /v1/competitions/{competitionID}/allowed-teams/me/check", RequireAuth(verifier, http.HandlerFunc(handler.CheckMyAllowedTeams)))
}

func registerRoundRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/competitions/{competitionID}/rounds", RequireAuth(verifier, http.HandlerFunc(handler.CreateRound)))
	mux.Handle("PUT /v1/rounds/{roundID}/lock-time", RequireAuth(verifier, http.HandlerFunc(handler.UpdateRoundLockTime)))
	mux.Handle("POST /v1/rounds/{roundID}/fixtures", RequireAuth(verifier, http.HandlerFunc(handler.CreateFixture)))
	mux.Handle("GET /v1/rounds/{roundID}/fixtures", RequireAuth(verifier, http.HandlerFunc(handler.ListFixtures)))
}

func registerPickRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/picks", RequireAuth(verifier, http.HandlerFunc(handler.SetPick)))
	mux.Handle("GET /v1/rounds/{roundID}/picks/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyPick)))
}

func registerResultRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/fixtures/{fixtureID}/result", RequireAuth(verifier, http.HandlerFunc(handler.SetFixtureResult)))
	mux.Handle("POST /v1/fixtures/{fixtureID}/process", RequireAuth(verifier, http.HandlerFunc(handler.ProcessFixture)))
	mux.Handle("POST /v1/rounds/{roundID}/process", RequireAuth(verifier, http.HandlerFunc(handler.ProcessRound)))
}
