package audit

import "context"

// Repository is the write-only audit sink.
type Repository interface {
	Record(ctx context.Context, entry Entry) error
}
