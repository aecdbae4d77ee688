package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/fixture"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type fixtureTableModel struct {
	ID          string         `db:"id"`
	RoundID     string         `db:"round_id"`
	HomeTeam    string         `db:"home_team"`
	AwayTeam    string         `db:"away_team"`
	HomeShort   string         `db:"home_short"`
	AwayShort   string         `db:"away_short"`
	KickoffAt   time.Time      `db:"kickoff_at"`
	Result      sql.NullString `db:"result"`
	ProcessedAt *time.Time     `db:"processed_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:          m.ID,
		RoundID:     m.RoundID,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeShort:   m.HomeShort,
		AwayShort:   m.AwayShort,
		KickoffAt:   m.KickoffAt,
		Result:      nullStringToPtr(m.Result),
		ProcessedAt: m.ProcessedAt,
	}
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, id string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixture").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByRound(ctx context.Context, roundID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixture").
		Where(qb.Eq("round_id", roundID)).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *FixtureRepository) Create(ctx context.Context, item fixture.Fixture) error {
	model := fixtureTableModel{
		ID:        item.ID,
		RoundID:   item.RoundID,
		HomeTeam:  item.HomeTeam,
		AwayTeam:  item.AwayTeam,
		HomeShort: item.HomeShort,
		AwayShort: item.AwayShort,
		KickoffAt: item.KickoffAt,
		Result:    ptrToNullString(item.Result),
	}

	query, args, err := qb.InsertModel("fixture", model, "")
	if err != nil {
		return fmt.Errorf("build insert fixture query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fixture: %w", err)
	}

	return nil
}

// SetResult records the result only when none exists yet. The conditional
// write makes double submissions lose without a read-modify-write race.
func (r *FixtureRepository) SetResult(ctx context.Context, id string, result string) (fixture.Fixture, error) {
	const query = `
UPDATE fixture
SET result = $1
WHERE id = $2
  AND result IS NULL
RETURNING id, round_id, home_team, away_team, home_short, away_short, kickoff_at, result, processed_at`

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, result, id); err != nil {
		if isNotFound(err) {
			// Either the fixture is missing or a result already landed.
			if _, exists, checkErr := r.GetByID(ctx, id); checkErr == nil && exists {
				return fixture.Fixture{}, fixture.ErrFixtureResolved
			}
			return fixture.Fixture{}, fmt.Errorf("fixture %s not found", id)
		}
		return fixture.Fixture{}, fmt.Errorf("set fixture result: %w", err)
	}

	return row.toDomain(), nil
}
