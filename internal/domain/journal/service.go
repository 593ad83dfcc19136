package journal

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Service encapsulates journal operations.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService constructs a journal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.Get().With("component", "signal_journal")}
}

// Record validates and stores a signal entry, filling ID and timestamp.
func (s *Service) Record(ctx context.Context, entry *SignalEntry) error {
	if entry == nil {
		return errors.ErrInvalidInput
	}
	if strings.TrimSpace(entry.Token) == "" {
		return errors.NewValidationError("token", "must not be empty", entry.Token)
	}
	if entry.Signal == "" {
		return errors.NewValidationError("signal", "must not be empty", entry.Signal)
	}
	entry.Token = strings.ToUpper(entry.Token)
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return errors.Wrap(err, "create journal entry")
	}

	s.log.Debugw("Signal journaled",
		"id", entry.ID,
		"token", entry.Token,
		"signal", entry.Signal,
		"deviation_pct", entry.PriceDeviation().String(),
	)
	return nil
}

// Recent returns the latest entries for token, newest first.
func (s *Service) Recent(ctx context.Context, token string, limit int) ([]SignalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	entries, err := s.repo.GetByToken(ctx, strings.ToUpper(token), limit)
	if err != nil {
		return nil, errors.Wrap(err, "get journal entries")
	}
	return entries, nil
}

// Stats returns per token/signal aggregates since the given time.
func (s *Service) Stats(ctx context.Context, since time.Time) ([]SignalStats, error) {
	stats, err := s.repo.GetStats(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "get journal stats")
	}
	return stats, nil
}
