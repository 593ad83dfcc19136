package postgres

import (
	"context"
	"time"

	"fiatrouter/internal/domain/journal"
	"fiatrouter/pkg/errors"
)

// Compile-time check
var _ journal.Repository = (*SignalJournalRepository)(nil)

const signalJournalSchema = `
	CREATE TABLE IF NOT EXISTS signal_journal (
		id             UUID PRIMARY KEY,
		requester      TEXT NOT NULL,
		token          TEXT NOT NULL,
		signal         TEXT NOT NULL,
		percent        NUMERIC(10, 4) NOT NULL DEFAULT 0,
		provided_price NUMERIC(38, 18) NOT NULL DEFAULT 0,
		quoted_price   NUMERIC(38, 18) NOT NULL DEFAULT 0,
		entry_price    NUMERIC(38, 18) NOT NULL DEFAULT 0,
		holdings       NUMERIC(38, 18) NOT NULL DEFAULT 0,
		analysis       TEXT NOT NULL DEFAULT '',
		fallback       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_signal_journal_token_created ON signal_journal (token, created_at DESC);`

// SignalJournalRepository implements journal.Repository using sqlx
type SignalJournalRepository struct {
	db DBTX
}

// NewSignalJournalRepository creates a new signal journal repository
func NewSignalJournalRepository(db DBTX) *SignalJournalRepository {
	return &SignalJournalRepository{db: db}
}

// EnsureSchema creates the journal table if it does not exist
func (r *SignalJournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, signalJournalSchema); err != nil {
		return errors.Wrap(err, "create signal_journal schema")
	}
	return nil
}

// Create inserts a new journal entry
func (r *SignalJournalRepository) Create(ctx context.Context, entry *journal.SignalEntry) error {
	query := `
		INSERT INTO signal_journal (
			id, requester, token, signal, percent,
			provided_price, quoted_price, entry_price, holdings,
			analysis, fallback, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Requester, entry.Token, entry.Signal, entry.Percent,
		entry.ProvidedPrice, entry.QuotedPrice, entry.EntryPrice, entry.Holdings,
		entry.Analysis, entry.Fallback, entry.CreatedAt,
	)

	return err
}

// GetByToken retrieves the latest entries for a token
func (r *SignalJournalRepository) GetByToken(ctx context.Context, token string, limit int) ([]journal.SignalEntry, error) {
	var entries []journal.SignalEntry

	query := `
		SELECT * FROM signal_journal
		WHERE token = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &entries, query, token, limit); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetStats aggregates entries per token and signal
func (r *SignalJournalRepository) GetStats(ctx context.Context, since time.Time) ([]journal.SignalStats, error) {
	var stats []journal.SignalStats

	query := `
		SELECT
			token,
			signal,
			COUNT(*) as total,
			SUM(CASE WHEN fallback THEN 1 ELSE 0 END) as fallbacks,
			ROUND(AVG(percent), 4) as avg_percent,
			MAX(created_at) as last_emitted
		FROM signal_journal
		WHERE created_at >= $1
		GROUP BY token, signal
		ORDER BY token, total DESC`

	if err := r.db.SelectContext(ctx, &stats, query, since); err != nil {
		return nil, err
	}

	return stats, nil
}
