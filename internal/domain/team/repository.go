package team

import "context"

// Repository exposes read access to the team catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (Team, bool, error)
	GetByShort(ctx context.Context, teamListID, short string) (Team, bool, error)
	ListActiveByTeamList(ctx context.Context, teamListID string) ([]Team, error)
}
