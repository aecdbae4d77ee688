package auditlog

import (
	"context"

	"github.com/noodev8/lmslocal/internal/domain/audit"
)

// Tee writes every entry to the primary store and mirrors it to the
// secondary. The secondary is best-effort; only primary failures propagate,
// which keeps transactional audit semantics intact when the primary is the
// database writer.
type Tee struct {
	primary   audit.Repository
	secondary audit.Repository
}

func NewTee(primary, secondary audit.Repository) *Tee {
	return &Tee{primary: primary, secondary: secondary}
}

func (t *Tee) Record(ctx context.Context, entry audit.Entry) error {
	if err := t.primary.Record(ctx, entry); err != nil {
		return err
	}
	if t.secondary != nil {
		_ = t.secondary.Record(ctx, entry)
	}
	return nil
}
