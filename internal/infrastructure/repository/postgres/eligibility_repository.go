package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/eligibility"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type EligibilityRepository struct {
	db *sqlx.DB
}

func NewEligibilityRepository(db *sqlx.DB) *EligibilityRepository {
	return &EligibilityRepository{db: db}
}

func (r *EligibilityRepository) ListTeamIDs(ctx context.Context, competitionID, userID string) ([]string, error) {
	query, args, err := qb.Select("team_id").From("allowed_teams").
		Where(
			qb.Eq("competition_id", competitionID),
			qb.Eq("user_id", userID),
		).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list allowed teams query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list allowed teams: %w", err)
	}

	return out, nil
}

func (r *EligibilityRepository) CountRemaining(ctx context.Context, competitionID, userID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("allowed_teams").
		Where(
			qb.Eq("competition_id", competitionID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count allowed teams query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count allowed teams: %w", err)
	}

	return count, nil
}

// Populate inserts the given teams, skipping rows that already exist. The
// conflict target is the full primary key, so re-runs and concurrent seeding
// are harmless.
func (r *EligibilityRepository) Populate(ctx context.Context, competitionID, userID string, teamIDs []string) (int, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}

	builder := qb.InsertInto("allowed_teams").
		Columns("competition_id", "user_id", "team_id")
	for _, teamID := range teamIDs {
		builder.Values(competitionID, userID, teamID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (competition_id, user_id, team_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build populate allowed teams query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("populate allowed teams: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("populate allowed teams rows affected: %w", err)
	}

	return int(inserted), nil
}

// ResetIfExhausted re-checks emptiness inside the transaction with the
// player's rows locked, so a pick committing in between either blocks the
// reset or is seen by it.
func (r *EligibilityRepository) ResetIfExhausted(ctx context.Context, competitionID, userID string, teamIDs []string) (eligibility.ResetOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("begin tx for allowed teams reset: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `
SELECT team_id
FROM allowed_teams
WHERE competition_id = $1
  AND user_id = $2
FOR UPDATE`

	var remaining []string
	if err := tx.SelectContext(ctx, &remaining, lockQuery, competitionID, userID); err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("lock allowed teams in tx: %w", err)
	}
	if len(remaining) > 0 {
		return eligibility.ResetOutcome{Reset: false, AvailableCount: len(remaining)}, nil
	}

	builder := qb.InsertInto("allowed_teams").
		Columns("competition_id", "user_id", "team_id")
	for _, teamID := range teamIDs {
		builder.Values(competitionID, userID, teamID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (competition_id, user_id, team_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("build reset allowed teams query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("reset allowed teams: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return eligibility.ResetOutcome{}, fmt.Errorf("commit allowed teams reset: %w", err)
	}

	return eligibility.ResetOutcome{Reset: true, AvailableCount: len(teamIDs)}, nil
}
