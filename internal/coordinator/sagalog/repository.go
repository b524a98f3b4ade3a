package sagalog

import "context"

// Repository persists saga log entries.
type Repository interface {
	// Save appends a new entry.
	Save(ctx context.Context, entry *SagaLog) error
}
