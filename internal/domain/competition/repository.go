package competition

import "context"

// Repository exposes competition persistence operations.
type Repository interface {
	GetByID(ctx context.Context, id string) (Competition, bool, error)
	GetByInviteCode(ctx context.Context, code string) (Competition, bool, error)
	Create(ctx context.Context, item Competition) error
	UpdateStatus(ctx context.Context, id string, status Status) error
}
