package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/domain/pick"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type pickTableModel struct {
	ID           string         `db:"id"`
	RoundID      string         `db:"round_id"`
	UserID       string         `db:"user_id"`
	Team         string         `db:"team"`
	FixtureID    string         `db:"fixture_id"`
	SetByAdminID sql.NullString `db:"set_by_admin_id"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (m pickTableModel) toDomain() pick.Pick {
	return pick.Pick{
		ID:           m.ID,
		RoundID:      m.RoundID,
		UserID:       m.UserID,
		Team:         m.Team,
		FixtureID:    m.FixtureID,
		SetByAdminID: nullStringToPtr(m.SetByAdminID),
		CreatedAt:    m.CreatedAt,
	}
}

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) GetByRoundAndUser(ctx context.Context, roundID, userID string) (pick.Pick, bool, error) {
	query, args, err := qb.Select("*").From("pick").
		Where(
			qb.Eq("round_id", roundID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick query: %w", err)
	}

	var row pickTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick by round and user: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PickRepository) ListByRound(ctx context.Context, roundID string) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").From("pick").
		Where(qb.Eq("round_id", roundID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks by round: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *PickRepository) ListByCompetitionAndUser(ctx context.Context, competitionID, userID string) ([]pick.Pick, error) {
	const query = `
SELECT p.id, p.round_id, p.user_id, p.team, p.fixture_id, p.set_by_admin_id, p.created_at
FROM pick p
JOIN round r ON r.id = p.round_id
WHERE r.competition_id = $1
  AND p.user_id = $2
ORDER BY r.number`

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, competitionID, userID); err != nil {
		return nil, fmt.Errorf("list picks by competition and user: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// Save is the engine's one multi-table write on the pick path: the upsert,
// the allowed-teams exchange and the audit entry commit together or not at
// all. The prior pick is re-read with FOR UPDATE so a concurrent change
// cannot restore a stale team.
func (r *PickRepository) Save(ctx context.Context, item pick.Pick, exchange *pick.EligibilityExchange, entry audit.Entry) (pick.Pick, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("begin tx for pick save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const priorQuery = `
SELECT id, round_id, user_id, team, fixture_id, set_by_admin_id, created_at
FROM pick
WHERE round_id = $1
  AND user_id = $2
FOR UPDATE`

	var prior pickTableModel
	hadPrior := true
	if err := tx.GetContext(ctx, &prior, priorQuery, item.RoundID, item.UserID); err != nil {
		if !isNotFound(err) {
			return pick.Pick{}, fmt.Errorf("get prior pick in tx: %w", err)
		}
		hadPrior = false
	}

	if exchange != nil && !(hadPrior && prior.Team == item.Team) {
		if hadPrior {
			const restoreQuery = `
INSERT INTO allowed_teams (competition_id, user_id, team_id)
SELECT $1, $2, t.id
FROM team t
WHERE t.team_list_id = $3
  AND t.short = $4
ON CONFLICT (competition_id, user_id, team_id) DO NOTHING`
			if _, err := tx.ExecContext(ctx, restoreQuery, exchange.CompetitionID, item.UserID, exchange.TeamListID, prior.Team); err != nil {
				return pick.Pick{}, fmt.Errorf("restore prior team: %w", err)
			}
		}

		const consumeQuery = `
DELETE FROM allowed_teams
WHERE competition_id = $1
  AND user_id = $2
  AND team_id = $3`
		res, err := tx.ExecContext(ctx, consumeQuery, exchange.CompetitionID, item.UserID, exchange.ConsumeTeamID)
		if err != nil {
			return pick.Pick{}, fmt.Errorf("consume picked team: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return pick.Pick{}, fmt.Errorf("%w: team=%s user=%s", pick.ErrTeamUnavailable, exchange.ConsumeTeamID, item.UserID)
		}
	}

	const upsertQuery = `
INSERT INTO pick (id, round_id, user_id, team, fixture_id, set_by_admin_id, created_at)
VALUES (:id, :round_id, :user_id, :team, :fixture_id, :set_by_admin_id, :created_at)
ON CONFLICT (round_id, user_id)
DO UPDATE SET
    team = EXCLUDED.team,
    fixture_id = EXCLUDED.fixture_id,
    set_by_admin_id = EXCLUDED.set_by_admin_id
RETURNING id, round_id, user_id, team, fixture_id, set_by_admin_id, created_at`

	model := pickTableModel{
		ID:           item.ID,
		RoundID:      item.RoundID,
		UserID:       item.UserID,
		Team:         item.Team,
		FixtureID:    item.FixtureID,
		SetByAdminID: ptrToNullString(item.SetByAdminID),
		CreatedAt:    item.CreatedAt,
	}
	upsertSQL, upsertArgs, err := sqlx.Named(upsertQuery, model)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("bind pick upsert query: %w", err)
	}

	var stored pickTableModel
	if err := tx.GetContext(ctx, &stored, tx.Rebind(upsertSQL), upsertArgs...); err != nil {
		return pick.Pick{}, fmt.Errorf("upsert pick: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return pick.Pick{}, err
	}

	if err := tx.Commit(); err != nil {
		return pick.Pick{}, fmt.Errorf("commit pick save: %w", err)
	}

	return stored.toDomain(), nil
}
