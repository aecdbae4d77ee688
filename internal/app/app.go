package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/noodev8/lmslocal/internal/config"
	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/team"
	"github.com/noodev8/lmslocal/internal/infrastructure/account/authsvc"
	"github.com/noodev8/lmslocal/internal/infrastructure/auditlog"
	cacherepo "github.com/noodev8/lmslocal/internal/infrastructure/repository/cache"
	"github.com/noodev8/lmslocal/internal/infrastructure/repository/postgres"
	"github.com/noodev8/lmslocal/internal/interfaces/httpapi"
	basecache "github.com/noodev8/lmslocal/internal/platform/cache"
	idgen "github.com/noodev8/lmslocal/internal/platform/id"
	"github.com/noodev8/lmslocal/internal/platform/logging"
	"github.com/noodev8/lmslocal/internal/platform/resilience"
	"github.com/noodev8/lmslocal/internal/usecase"
)

// App holds the wired HTTP server plus the resources main has to close on
// the way out.
type App struct {
	Server *http.Server

	db        *sqlx.DB
	forwarder *auditlog.Forwarder
}

// New builds the full service: database, repositories, services, auth
// client and HTTP router.
func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	competitionRepo := postgres.NewCompetitionRepository(db)
	roundRepo := postgres.NewRoundRepository(db)
	fixtureRepo := postgres.NewFixtureRepository(db)
	pickRepo := postgres.NewPickRepository(db)
	entrantRepo := postgres.NewEntrantRepository(db)
	eligibilityRepo := postgres.NewEligibilityRepository(db)

	var teamRepo team.Repository = postgres.NewTeamRepository(db)
	if cfg.CacheEnabled {
		teamRepo = cacherepo.NewTeamRepository(teamRepo, basecache.NewStore(cfg.CacheTTL))
	}

	var auditRepo audit.Repository = postgres.NewAuditRepository(db)
	var forwarder *auditlog.Forwarder
	if cfg.AuditForwardEnabled {
		forwarder = auditlog.NewForwarder(auditlog.ForwarderConfig{
			Endpoint: cfg.AuditForwardEndpoint,
			APIKey:   cfg.AuditForwardAPIKey,
			Timeout:  cfg.AuditForwardTimeout,
			Async:    cfg.AuditForwardAsync,
			Breaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AuditForwardCircuitEnabled,
				FailureThreshold: cfg.AuditForwardFailureCount,
				OpenTimeout:      cfg.AuditForwardOpenTimeout,
				HalfOpenMaxReq:   cfg.AuditForwardHalfOpenMaxReq,
			},
		}, logger)
		auditRepo = auditlog.NewTee(auditRepo, forwarder)
	}

	ids := idgen.NewRandomGenerator()

	eligibilityService := usecase.NewEligibilityService(competitionRepo, teamRepo, eligibilityRepo, pickRepo, entrantRepo, auditRepo, logger)
	competitionService := usecase.NewCompetitionService(competitionRepo, teamRepo, roundRepo, entrantRepo, auditRepo, eligibilityService, ids, logger)
	roundService := usecase.NewRoundService(competitionRepo, roundRepo, fixtureRepo, auditRepo, ids, logger)
	pickService := usecase.NewPickService(
		competitionRepo,
		roundRepo,
		fixtureRepo,
		pickRepo,
		entrantRepo,
		eligibilityRepo,
		teamRepo,
		ids,
		usecase.PickPolicy{AdminBypassTeamTwice: cfg.AdminPickBypassTeamTwice},
		logger,
	)
	resultService := usecase.NewResultService(competitionRepo, roundRepo, fixtureRepo, pickRepo, entrantRepo, auditRepo, logger)

	verifier := authsvc.NewClient(
		&http.Client{Timeout: cfg.AuthTimeout},
		cfg.AuthBaseURL,
		cfg.AuthIntrospectPath,
		cfg.AuthAdminKey,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AuthCircuitEnabled,
			FailureThreshold: cfg.AuthCircuitFailureCount,
			OpenTimeout:      cfg.AuthCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AuthCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(
		competitionService,
		roundService,
		pickService,
		resultService,
		eligibilityService,
		cfg.ProcessMaxWorkers,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		closeQuietly(db)
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		db:        db,
		forwarder: forwarder,
	}, nil
}

// Close releases everything New opened. Safe after a failed start.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.forwarder != nil {
		a.forwarder.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func closeQuietly(db *sqlx.DB) {
	_ = db.Close()
}
