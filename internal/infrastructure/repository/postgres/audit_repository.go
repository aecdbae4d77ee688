package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noodev8/lmslocal/internal/domain/audit"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	return insertAuditEntry(ctx, r.db, entry)
}

func insertAuditEntry(ctx context.Context, execer sqlx.ExtContext, entry audit.Entry) error {
	const query = `
INSERT INTO audit_log (competition_id, user_id, actor_id, action, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := execer.ExecContext(ctx, query, entry.CompetitionID, entry.UserID, entry.ActorID, string(entry.Action), entry.Detail, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}
