package pending

import (
	"strings"
	"time"
)

// Kind discriminates the payload carried by a pending request
type Kind string

const (
	KindChat    Kind = "chat"
	KindTrading Kind = "trading"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindChat || k == KindTrading
}

// keyPrefix namespaces correlation keys by kind
func (k Kind) keyPrefix() string {
	switch k {
	case KindChat:
		return "price_request_"
	case KindTrading:
		return "trading_request_"
	default:
		return "unknown_request_"
	}
}

// Key builds the correlation key for a (kind, requester) pair.
// A requester has at most one outstanding lookup per kind.
func Key(kind Kind, requester string) string {
	return kind.keyPrefix() + requester
}

// ChatContext is the payload of a CHAT request
type ChatContext struct {
	OriginalQuery string `json:"original_query"`
}

// TradingContext is the payload of a TRADING request
type TradingContext struct {
	ProvidedPrice    float64   `json:"provided_price"`
	HistoricalPrices []float64 `json:"historical_prices"`
	CurrentHoldings  float64   `json:"current_holdings"`
}

// Request is one in-flight price lookup waiting for a peer quote
type Request struct {
	Kind       Kind      `json:"kind"`
	Requester  string    `json:"requester"`
	Token      string    `json:"token"`
	EntryPrice float64   `json:"entry_price"`
	CreatedAt  time.Time `json:"created_at"`

	// Generation is assigned by the store on every Put
	Generation uint64 `json:"generation"`

	Chat    *ChatContext    `json:"chat,omitempty"`
	Trading *TradingContext `json:"trading,omitempty"`
}

// NewChatRequest creates a CHAT request for a free-text price query
func NewChatRequest(requester, token, query string, entryPrice float64) *Request {
	return &Request{
		Kind:       KindChat,
		Requester:  requester,
		Token:      strings.ToUpper(token),
		EntryPrice: entryPrice,
		CreatedAt:  time.Now().UTC(),
		Chat:       &ChatContext{OriginalQuery: query},
	}
}

// NewTradingRequest creates a TRADING request for a structured signal request
func NewTradingRequest(requester, token string, providedPrice, entryPrice, holdings float64, history []float64) *Request {
	if history == nil {
		history = []float64{}
	}
	return &Request{
		Kind:       KindTrading,
		Requester:  requester,
		Token:      strings.ToUpper(token),
		EntryPrice: entryPrice,
		CreatedAt:  time.Now().UTC(),
		Trading: &TradingContext{
			ProvidedPrice:    providedPrice,
			HistoricalPrices: history,
			CurrentHoldings:  holdings,
		},
	}
}

// Key returns the correlation key this request is stored under
func (r *Request) Key() string {
	return Key(r.Kind, r.Requester)
}

// MatchesToken compares tokens case-insensitively
func (r *Request) MatchesToken(token string) bool {
	return strings.EqualFold(r.Token, token)
}

// Clone returns a deep copy so callers never share store-owned memory
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.Chat != nil {
		chat := *r.Chat
		c.Chat = &chat
	}
	if r.Trading != nil {
		trading := *r.Trading
		if r.Trading.HistoricalPrices != nil {
			trading.HistoricalPrices = make([]float64, len(r.Trading.HistoricalPrices))
			copy(trading.HistoricalPrices, r.Trading.HistoricalPrices)
		}
		c.Trading = &trading
	}
	return &c
}
