package message

import (
	"strings"

	"fiatrouter/pkg/errors"
)

// Signal is a trading recommendation or a provisional status
type Signal string

const (
	SignalBuy           Signal = "BUY"
	SignalSell          Signal = "SELL"
	SignalHold          Signal = "HOLD"
	SignalFetchingPrice Signal = "FETCHING_CURRENT_PRICE"
	SignalPending       Signal = "PENDING"
)

// IsFinal reports whether s is a recommendation rather than a provisional status
func (s Signal) IsFinal() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// PriceRequest is the structured trading request sent by a peer trading agent
type PriceRequest struct {
	Token            string    `json:"token"`
	CurrentPrice     float64   `json:"current_price"`
	EntryPrice       float64   `json:"entry_price"`
	HistoricalPrices []float64 `json:"historical_prices"`
	CurrentHoldings  float64   `json:"current_holdings"`
}

func (PriceRequest) MessageType() Type { return TypePriceRequest }

// Validate checks the request carries a usable token
func (r *PriceRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.NewValidationError("token", "must not be empty", r.Token)
	}
	return nil
}

// TradeSignal is the reply to a PriceRequest
type TradeSignal struct {
	Signal  Signal  `json:"signal"`
	Percent float64 `json:"percent"`
}

func (TradeSignal) MessageType() Type { return TypeTradeSignal }

// HoldSignal is the safe default reply when no recommendation can be produced
func HoldSignal() *TradeSignal {
	return &TradeSignal{Signal: SignalHold, Percent: 0.0}
}
