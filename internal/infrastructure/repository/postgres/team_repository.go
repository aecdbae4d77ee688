package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/team"
	qb "github.com/noodev8/lmslocal/internal/platform/querybuilder"
)

type teamTableModel struct {
	ID         string `db:"id"`
	TeamListID string `db:"team_list_id"`
	Name       string `db:"name"`
	Short      string `db:"short"`
	Active     bool   `db:"active"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:         m.ID,
		TeamListID: m.TeamListID,
		Name:       m.Name,
		Short:      m.Short,
		Active:     m.Active,
	}
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("team").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) GetByShort(ctx context.Context, teamListID, short string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("team").
		Where(
			qb.Eq("team_list_id", teamListID),
			qb.Expr("UPPER(short) = UPPER(?)", short),
		).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by short query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by short: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) ListActiveByTeamList(ctx context.Context, teamListID string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("team").
		Where(
			qb.Eq("team_list_id", teamListID),
			qb.Expr("active = TRUE"),
		).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
