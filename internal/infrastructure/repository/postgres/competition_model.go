package postgres

import (
	"database/sql"
	"time"

	"github.com/noodev8/lmslocal/internal/domain/competition"
)

type competitionTableModel struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Status         string         `db:"status"`
	OrganiserID    string         `db:"organiser_id"`
	TeamListID     string         `db:"team_list_id"`
	LivesPerPlayer int            `db:"lives_per_player"`
	NoTeamTwice    bool           `db:"no_team_twice"`
	InviteCode     sql.NullString `db:"invite_code"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (m competitionTableModel) toDomain() competition.Competition {
	return competition.Competition{
		ID:             m.ID,
		Name:           m.Name,
		Status:         competition.Status(m.Status),
		OrganiserID:    m.OrganiserID,
		TeamListID:     m.TeamListID,
		LivesPerPlayer: m.LivesPerPlayer,
		NoTeamTwice:    m.NoTeamTwice,
		InviteCode:     nullStringToPtr(m.InviteCode),
		CreatedAt:      m.CreatedAt,
	}
}
