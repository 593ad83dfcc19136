// Package signal turns a fresh price quote plus the caller's position into a
// BUY / SELL / HOLD recommendation.
package signal

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"fiatrouter/internal/domain/message"
	"fiatrouter/pkg/errors"
)

// PriceData is the input record assembled by the trading completion handler
type PriceData struct {
	Token            string
	CurrentPrice     float64
	EntryPrice       float64
	HistoricalPrices []float64
	CurrentHoldings  float64
}

// Result is a trading recommendation
type Result struct {
	Signal   message.Signal
	Percent  float64
	Analysis string
}

// Generator produces a recommendation for a price record
type Generator interface {
	Generate(ctx context.Context, data PriceData) (Result, error)
}

// Thresholds tune the rule set. Percentages are expressed as 0-100.
type Thresholds struct {
	RSIPeriod      int
	SMAPeriod      int
	Overbought     float64
	Oversold       float64
	StopLossPct    float64
	TakeProfitPct  float64
	TrendBandPct   float64
	StopLossSell   float64
	TakeProfitSell float64
	OverboughtSell float64
	OversoldBuy    float64
	TrendSize      float64
}

// DefaultThresholds returns the production rule set
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIPeriod:      14,
		SMAPeriod:      20,
		Overbought:     70,
		Oversold:       30,
		StopLossPct:    15,
		TakeProfitPct:  25,
		TrendBandPct:   2,
		StopLossSell:   100,
		TakeProfitSell: 50,
		OverboughtSell: 25,
		OversoldBuy:    20,
		TrendSize:      10,
	}
}

// RuleGenerator combines position PnL with RSI and SMA trend indicators
type RuleGenerator struct {
	t Thresholds
}

// NewRuleGenerator creates a generator with the given thresholds
func NewRuleGenerator(t Thresholds) *RuleGenerator {
	return &RuleGenerator{t: t}
}

type indicators struct {
	rsi    float64
	hasRSI bool
	sma    float64
	hasSMA bool
	pnlPct decimal.Decimal
	hasPnL bool
}

// Generate evaluates the rules in priority order: stop loss, take profit,
// RSI extremes, SMA trend. Anything else is HOLD.
func (g *RuleGenerator) Generate(ctx context.Context, data PriceData) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, "signal generation cancelled")
	}
	if err := validate(data); err != nil {
		return Result{}, err
	}

	ind := g.compute(data)
	holding := data.CurrentHoldings > 0

	signal, pct, reason := message.SignalHold, 0.0, "no actionable setup"
	switch {
	case holding && ind.hasPnL && ind.pnlPct.LessThanOrEqual(decimal.NewFromFloat(-g.t.StopLossPct)):
		signal, pct, reason = message.SignalSell, g.t.StopLossSell, "stop loss hit"
	case holding && ind.hasPnL && ind.pnlPct.GreaterThanOrEqual(decimal.NewFromFloat(g.t.TakeProfitPct)):
		signal, pct, reason = message.SignalSell, g.t.TakeProfitSell, "take profit reached"
	case ind.hasRSI && ind.rsi >= g.t.Overbought:
		if holding {
			signal, pct, reason = message.SignalSell, g.t.OverboughtSell, "overbought, trimming position"
		} else {
			reason = "overbought, not chasing"
		}
	case ind.hasRSI && ind.rsi <= g.t.Oversold:
		signal, pct, reason = message.SignalBuy, g.t.OversoldBuy, "oversold"
	case ind.hasSMA && data.CurrentPrice >= ind.sma*(1+g.t.TrendBandPct/100):
		signal, pct, reason = message.SignalBuy, g.t.TrendSize, "price above moving average"
	case ind.hasSMA && holding && data.CurrentPrice <= ind.sma*(1-g.t.TrendBandPct/100):
		signal, pct, reason = message.SignalSell, g.t.TrendSize, "price below moving average"
	}

	return Result{
		Signal:   signal,
		Percent:  pct,
		Analysis: describe(data, ind, reason),
	}, nil
}

func validate(data PriceData) error {
	if strings.TrimSpace(data.Token) == "" {
		return errors.NewValidationError("token", "must not be empty", data.Token)
	}
	if data.CurrentPrice <= 0 || math.IsNaN(data.CurrentPrice) || math.IsInf(data.CurrentPrice, 0) {
		return errors.NewValidationError("current_price", "must be a positive finite number", data.CurrentPrice)
	}
	if data.CurrentHoldings < 0 {
		return errors.NewValidationError("current_holdings", "must not be negative", data.CurrentHoldings)
	}
	return nil
}

func (g *RuleGenerator) compute(data PriceData) indicators {
	var ind indicators

	series := make([]float64, 0, len(data.HistoricalPrices)+1)
	for _, p := range data.HistoricalPrices {
		if p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0) {
			series = append(series, p)
		}
	}
	series = append(series, data.CurrentPrice)

	// RSI is meaningless on a flat series (ta-lib reports 0)
	if len(series) > g.t.RSIPeriod && moves(series) {
		ind.rsi = last(talib.Rsi(series, g.t.RSIPeriod))
		ind.hasRSI = true
	}
	if len(series) >= g.t.SMAPeriod {
		ind.sma = last(talib.Sma(series, g.t.SMAPeriod))
		ind.hasSMA = ind.sma > 0
	}

	if data.EntryPrice > 0 {
		entry := decimal.NewFromFloat(data.EntryPrice)
		ind.pnlPct = decimal.NewFromFloat(data.CurrentPrice).
			Sub(entry).
			Div(entry).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		ind.hasPnL = true
	}

	return ind
}

func describe(data PriceData, ind indicators, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at $%s", strings.ToUpper(data.Token), decimal.NewFromFloat(data.CurrentPrice).String())
	if ind.hasPnL {
		fmt.Fprintf(&b, ", PnL %s%%", ind.pnlPct.StringFixed(2))
	}
	if ind.hasRSI {
		fmt.Fprintf(&b, ", RSI %.1f", ind.rsi)
	}
	if ind.hasSMA {
		fmt.Fprintf(&b, ", SMA %.4f", ind.sma)
	}
	fmt.Fprintf(&b, ": %s", reason)
	return b.String()
}

func moves(series []float64) bool {
	for _, v := range series[1:] {
		if v != series[0] {
			return true
		}
	}
	return false
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
