package journal

import (
	"context"
	"time"
)

// Repository defines the interface for signal journal data access
type Repository interface {
	Create(ctx context.Context, entry *SignalEntry) error
	GetByToken(ctx context.Context, token string, limit int) ([]SignalEntry, error)
	GetStats(ctx context.Context, since time.Time) ([]SignalStats, error)
}
