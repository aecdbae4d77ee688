package memory

import (
	"context"
	"sync"

	"github.com/noodev8/lmslocal/internal/domain/audit"
)

type AuditRepository struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Record(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)

	return nil
}

// Entries returns a copy of everything recorded so far.
func (r *AuditRepository) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]audit.Entry, len(r.entries))
	copy(out, r.entries)

	return out
}
