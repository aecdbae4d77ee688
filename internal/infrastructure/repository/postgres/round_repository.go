package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/round"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type roundTableModel struct {
	ID            string     `db:"id"`
	CompetitionID string     `db:"competition_id"`
	Number        int        `db:"number"`
	LockTime      time.Time  `db:"lock_time"`
	ProcessedAt   *time.Time `db:"processed_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (m roundTableModel) toDomain() round.Round {
	return round.Round{
		ID:            m.ID,
		CompetitionID: m.CompetitionID,
		Number:        m.Number,
		LockTime:      m.LockTime,
		ProcessedAt:   m.ProcessedAt,
		CreatedAt:     m.CreatedAt,
	}
}

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) GetByID(ctx context.Context, id string) (round.Round, bool, error) {
	query, args, err := qb.Select("*").From("round").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return round.Round{}, false, fmt.Errorf("build get round query: %w", err)
	}

	var row roundTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("get round by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RoundRepository) GetByCompetitionAndNumber(ctx context.Context, competitionID string, number int) (round.Round, bool, error) {
	query, args, err := qb.Select("*").From("round").
		Where(
			qb.Eq("competition_id", competitionID),
			qb.Eq("number", number),
		).
		ToSQL()
	if err != nil {
		return round.Round{}, false, fmt.Errorf("build get round by number query: %w", err)
	}

	var row roundTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("get round by number: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RoundRepository) ListByCompetition(ctx context.Context, competitionID string) ([]round.Round, error) {
	query, args, err := qb.Select("*").From("round").
		Where(qb.Eq("competition_id", competitionID)).
		OrderBy("number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rounds query: %w", err)
	}

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *RoundRepository) Create(ctx context.Context, item round.Round) error {
	model := roundTableModel{
		ID:            item.ID,
		CompetitionID: item.CompetitionID,
		Number:        item.Number,
		LockTime:      item.LockTime,
		CreatedAt:     item.CreatedAt,
	}

	query, args, err := qb.InsertModel("round", model, "")
	if err != nil {
		return fmt.Errorf("build insert round query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

// UpdateLockTime writes the new lock time and, when clearInviteCode is set,
// removes the competition's invite code in the same transaction so a
// registration-closing lock change is atomic.
func (r *RoundRepository) UpdateLockTime(ctx context.Context, id string, lockTime time.Time, clearInviteCode bool) (round.Round, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return round.Round{}, fmt.Errorf("begin tx for lock time update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const updateQuery = `
UPDATE round
SET lock_time = $1
WHERE id = $2
RETURNING id, competition_id, number, lock_time, processed_at, created_at`

	var row roundTableModel
	if err := tx.GetContext(ctx, &row, updateQuery, lockTime, id); err != nil {
		if isNotFound(err) {
			return round.Round{}, fmt.Errorf("round %s not found", id)
		}
		return round.Round{}, fmt.Errorf("update round lock time: %w", err)
	}

	if clearInviteCode {
		const clearQuery = `UPDATE competition SET invite_code = NULL WHERE id = $1`
		if _, err := tx.ExecContext(ctx, clearQuery, row.CompetitionID); err != nil {
			return round.Round{}, fmt.Errorf("clear competition invite code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return round.Round{}, fmt.Errorf("commit lock time update: %w", err)
	}

	return row.toDomain(), nil
}
