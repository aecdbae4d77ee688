package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/competition"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) GetByID(ctx context.Context, id string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competition").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *CompetitionRepository) GetByInviteCode(ctx context.Context, code string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competition").
		Where(qb.Eq("invite_code", code)).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition by invite code query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition by invite code: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	model := competitionTableModel{
		ID:             item.ID,
		Name:           item.Name,
		Status:         string(item.Status),
		OrganiserID:    item.OrganiserID,
		TeamListID:     item.TeamListID,
		LivesPerPlayer: item.LivesPerPlayer,
		NoTeamTwice:    item.NoTeamTwice,
		InviteCode:     ptrToNullString(item.InviteCode),
		CreatedAt:      item.CreatedAt,
	}

	query, args, err := qb.InsertModel("competition", model, "")
	if err != nil {
		return fmt.Errorf("build insert competition query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) UpdateStatus(ctx context.Context, id string, status competition.Status) error {
	query, args, err := qb.Update("competition").
		Set("status", string(status)).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update competition status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update competition status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("competition %s not found", id)
	}

	return nil
}
