package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/entrant"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type entrantTableModel struct {
	CompetitionID  string     `db:"competition_id"`
	UserID         string     `db:"user_id"`
	Status         string     `db:"status"`
	LivesRemaining int        `db:"lives_remaining"`
	Paid           bool       `db:"paid"`
	PaidAt         *time.Time `db:"paid_at"`
	JoinedAt       time.Time  `db:"joined_at"`
}

func (m entrantTableModel) toDomain() entrant.Entrant {
	return entrant.Entrant{
		CompetitionID:  m.CompetitionID,
		UserID:         m.UserID,
		Status:         entrant.Status(m.Status),
		LivesRemaining: m.LivesRemaining,
		Paid:           m.Paid,
		PaidAt:         m.PaidAt,
		JoinedAt:       m.JoinedAt,
	}
}

type EntrantRepository struct {
	db *sqlx.DB
}

func NewEntrantRepository(db *sqlx.DB) *EntrantRepository {
	return &EntrantRepository{db: db}
}

func (r *EntrantRepository) GetByCompetitionAndUser(ctx context.Context, competitionID, userID string) (entrant.Entrant, bool, error) {
	query, args, err := qb.Select("*").From("competition_user").
		Where(
			qb.Eq("competition_id", competitionID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return entrant.Entrant{}, false, fmt.Errorf("build get entrant query: %w", err)
	}

	var row entrantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return entrant.Entrant{}, false, nil
		}
		return entrant.Entrant{}, false, fmt.Errorf("get entrant: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *EntrantRepository) ListByCompetition(ctx context.Context, competitionID string) ([]entrant.Entrant, error) {
	query, args, err := qb.Select("*").From("competition_user").
		Where(qb.Eq("competition_id", competitionID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list entrants query: %w", err)
	}

	var rows []entrantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list entrants: %w", err)
	}

	out := make([]entrant.Entrant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *EntrantRepository) Create(ctx context.Context, item entrant.Entrant) error {
	model := entrantTableModel{
		CompetitionID:  item.CompetitionID,
		UserID:         item.UserID,
		Status:         string(item.Status),
		LivesRemaining: item.LivesRemaining,
		Paid:           item.Paid,
		PaidAt:         item.PaidAt,
		JoinedAt:       item.JoinedAt,
	}

	query, args, err := qb.InsertModel("competition_user", model, "")
	if err != nil {
		return fmt.Errorf("build insert entrant query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert entrant: %w", err)
	}

	return nil
}

// ApplyFixtureOutcomes claims the fixture by stamping processed_at under a
// NULL guard, then writes the lives updates. RowsAffected zero on the claim
// means another processor already ran; nothing else is written.
func (r *EntrantRepository) ApplyFixtureOutcomes(ctx context.Context, competitionID, fixtureID string, updates []entrant.LivesUpdate) (bool, error) {
	const claimQuery = `
UPDATE fixture
SET processed_at = NOW()
WHERE id = $1
  AND processed_at IS NULL`

	return r.applyClaimed(ctx, claimQuery, fixtureID, competitionID, updates)
}

// ApplyRoundMisses is the missed-pick analogue, claiming the round's
// processed marker.
func (r *EntrantRepository) ApplyRoundMisses(ctx context.Context, competitionID, roundID string, updates []entrant.LivesUpdate) (bool, error) {
	const claimQuery = `
UPDATE round
SET processed_at = NOW()
WHERE id = $1
  AND processed_at IS NULL`

	return r.applyClaimed(ctx, claimQuery, roundID, competitionID, updates)
}

func (r *EntrantRepository) applyClaimed(ctx context.Context, claimQuery, claimID, competitionID string, updates []entrant.LivesUpdate) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx for outcome apply: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, claimQuery, claimID)
	if err != nil {
		return false, fmt.Errorf("claim processed marker: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("claim processed marker rows affected: %w", err)
	} else if n == 0 {
		return false, nil
	}

	const updateQuery = `
UPDATE competition_user
SET lives_remaining = $1,
    status = $2
WHERE competition_id = $3
  AND user_id = $4`

	for _, update := range updates {
		if _, err := tx.ExecContext(ctx, updateQuery, update.LivesRemaining, string(update.Status), competitionID, update.UserID); err != nil {
			return false, fmt.Errorf("update entrant %s: %w", update.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit outcome apply: %w", err)
	}

	return true, nil
}

func (r *EntrantRepository) Reinstate(ctx context.Context, competitionID, userID string, lives int) (entrant.Entrant, error) {
	const query = `
UPDATE competition_user
SET status = $1,
    lives_remaining = $2
WHERE competition_id = $3
  AND user_id = $4
RETURNING competition_id, user_id, status, lives_remaining, paid, paid_at, joined_at`

	var row entrantTableModel
	if err := r.db.GetContext(ctx, &row, query, string(entrant.StatusActive), lives, competitionID, userID); err != nil {
		if isNotFound(err) {
			return entrant.Entrant{}, fmt.Errorf("entrant %s not in competition %s", userID, competitionID)
		}
		return entrant.Entrant{}, fmt.Errorf("reinstate entrant: %w", err)
	}

	return row.toDomain(), nil
}
