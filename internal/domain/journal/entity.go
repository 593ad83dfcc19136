package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignalEntry records one final trading signal sent to a peer
type SignalEntry struct {
	ID        uuid.UUID `db:"id"`
	Requester string    `db:"requester"`
	Token     string    `db:"token"`

	// Recommendation
	Signal  string          `db:"signal"`
	Percent decimal.Decimal `db:"percent"`

	// Prices at decision time
	ProvidedPrice decimal.Decimal `db:"provided_price"` // caller-supplied, never trusted
	QuotedPrice   decimal.Decimal `db:"quoted_price"`   // from the price peer
	EntryPrice    decimal.Decimal `db:"entry_price"`
	Holdings      decimal.Decimal `db:"holdings"`

	Analysis string `db:"analysis"`
	Fallback bool   `db:"fallback"` // generator failed, HOLD sent

	CreatedAt time.Time `db:"created_at"`
}

// PriceDeviation returns the quoted price's deviation from the provided one
// in percent, or zero when no price was provided.
func (e *SignalEntry) PriceDeviation() decimal.Decimal {
	if e.ProvidedPrice.IsZero() {
		return decimal.Zero
	}
	return e.QuotedPrice.Sub(e.ProvidedPrice).
		Div(e.ProvidedPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// SignalStats aggregates journal entries per token and signal
type SignalStats struct {
	Token       string          `db:"token"`
	Signal      string          `db:"signal"`
	Total       int             `db:"total"`
	Fallbacks   int             `db:"fallbacks"`
	AvgPercent  decimal.Decimal `db:"avg_percent"`
	LastEmitted time.Time       `db:"last_emitted"`
}
