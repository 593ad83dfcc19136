package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantPrice float64
		wantToken string
	}{
		{
			name:      "dollar sign with decimals",
			text:      "Current price of BTC is $43210.55",
			wantOK:    true,
			wantPrice: 43210.55,
			wantToken: "BTC",
		},
		{
			name:      "no dollar sign",
			text:      "The price of SOL is 150",
			wantOK:    true,
			wantPrice: 150,
			wantToken: "SOL",
		},
		{
			name:      "exponent notation",
			text:      "price of PEPE is $1.2e-05",
			wantOK:    true,
			wantPrice: 0.000012,
			wantToken: "PEPE",
		},
		{
			name:      "thousands separator and trailing period",
			text:      "The current price of ETH is $3,120.40.",
			wantOK:    true,
			wantPrice: 3120.40,
			wantToken: "ETH",
		},
		{
			name:      "case insensitive",
			text:      "PRICE OF sol IS $99",
			wantOK:    true,
			wantPrice: 99,
			wantToken: "SOL",
		},
		{
			name:      "multi word subject",
			text:      "The price of solana (SOL) is $150 USD",
			wantOK:    true,
			wantPrice: 150,
			wantToken: "SOLANA",
		},
		{
			name:   "no quote",
			text:   "I don't know",
			wantOK: false,
		},
		{
			name:   "pattern without number",
			text:   "price of SOL is unavailable",
			wantOK: false,
		},
		{
			name:   "unparseable number",
			text:   "price of SOL is $.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := Parse(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.InDelta(t, tt.wantPrice, q.Price, 1e-9)
			assert.Equal(t, tt.wantToken, q.Token)
			assert.Equal(t, tt.text, q.Text)
		})
	}
}

func TestQuote_Mentions(t *testing.T) {
	q, ok := Parse("The current price of SOL is $150")
	assert.True(t, ok)

	assert.True(t, q.Mentions("SOL"))
	assert.True(t, q.Mentions("sol"))
	assert.False(t, q.Mentions("ETH"))
	assert.False(t, q.Mentions(""))

	// substring matching is intentionally loose
	assert.True(t, q.Mentions("OF"))
}

func TestParse_FirstQuoteWins(t *testing.T) {
	q, ok := Parse("price of SOL is $150 and price of ETH is $3000")
	assert.True(t, ok)
	assert.Equal(t, "SOL", q.Token)
	assert.Equal(t, 150.0, q.Price)
}
