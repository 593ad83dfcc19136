package pricing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"fiatrouter/internal/domain/journal"
	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/metrics"
	"fiatrouter/internal/services/quote"
	"fiatrouter/internal/services/signal"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// CompletionHandler turns a matched pending request and its quote into the
// final reply to the requester
type CompletionHandler interface {
	Complete(ctx context.Context, req *pending.Request, q quote.Quote) error
}

// Analyzer produces a portfolio narrative for a prompt
type Analyzer interface {
	Analyze(ctx context.Context, query string) (string, error)
}

// Journal records final trading signals
type Journal interface {
	Record(ctx context.Context, entry *journal.SignalEntry) error
}

// AnalysisFallback is appended to chat replies when no analysis is available
const AnalysisFallback = "Consider your risk tolerance and portfolio allocation when trading this token."

// AnalysisPrompt is the analyst query for a freshly quoted token
func AnalysisPrompt(token string, price float64) string {
	return "Analyze " + token + " at $" + strconv.FormatFloat(price, 'f', -1, 64) + " for portfolio inclusion"
}

// FormatChatReply renders the chat answer for a quote. An empty analysis
// selects the generic fallback sentence.
func FormatChatReply(token string, q quote.Quote, analysis string) string {
	reply := fmt.Sprintf("**Current %s Price: $%.8f USD**\n\n%s\n\n", token, q.Price, q.Text)
	if analysis == "" {
		return reply + AnalysisFallback
	}
	return reply + "**Portfolio Analysis:**\n" + analysis
}

// ChatCompletion answers CHAT requests with the quote plus a portfolio analysis
type ChatCompletion struct {
	analyst   Analyzer
	messenger Messenger
	log       *logger.Logger
}

// NewChatCompletion creates the chat completion handler
func NewChatCompletion(analyst Analyzer, messenger Messenger) *ChatCompletion {
	return &ChatCompletion{
		analyst:   analyst,
		messenger: messenger,
		log:       logger.Get().With("component", "chat_completion"),
	}
}

// Complete sends the quote to the requester. Analysis failure never blocks
// quote delivery.
func (h *ChatCompletion) Complete(ctx context.Context, req *pending.Request, q quote.Quote) error {
	analysis, err := h.analyst.Analyze(ctx, AnalysisPrompt(req.Token, q.Price))
	metrics.RecordAnalystCall("analyze", err)
	status := "success"
	if err != nil {
		h.log.Errorw("Portfolio analysis failed", "token", req.Token, "error", err)
		analysis = ""
		status = "fallback"
	}

	reply := FormatChatReply(req.Token, q, analysis)
	if err := h.messenger.Send(ctx, req.Requester, message.NewTextChat(reply, false)); err != nil {
		metrics.Completions.WithLabelValues(string(pending.KindChat), "error").Inc()
		return errors.Wrapf(err, "send price reply to %s", req.Requester)
	}

	metrics.Completions.WithLabelValues(string(pending.KindChat), status).Inc()
	h.log.Infow("✓ Sent price reply", "requester", req.Requester, "token", req.Token, "price", q.Price)
	return nil
}

// TradingCompletion answers TRADING requests with a trade signal
type TradingCompletion struct {
	generator signal.Generator
	messenger Messenger
	journal   Journal
	log       *logger.Logger
}

// NewTradingCompletion creates the trading completion handler. journal may be nil.
func NewTradingCompletion(generator signal.Generator, messenger Messenger, journal Journal) *TradingCompletion {
	return &TradingCompletion{
		generator: generator,
		messenger: messenger,
		journal:   journal,
		log:       logger.Get().With("component", "trading_completion"),
	}
}

// Complete generates and sends the final signal. When the generator fails a
// HOLD 0% is sent instead, so the requester always gets a terminal reply.
func (h *TradingCompletion) Complete(ctx context.Context, req *pending.Request, q quote.Quote) error {
	tc := req.Trading
	if tc == nil {
		tc = &pending.TradingContext{}
	}

	h.log.Infow("Price comparison",
		"token", req.Token,
		"provided", fmt.Sprintf("%.4f", tc.ProvidedPrice),
		"current", fmt.Sprintf("%.4f", q.Price),
	)

	data := signal.PriceData{
		Token:            req.Token,
		CurrentPrice:     q.Price,
		EntryPrice:       req.EntryPrice,
		HistoricalPrices: tc.HistoricalPrices,
		CurrentHoldings:  tc.CurrentHoldings,
	}

	reply := message.HoldSignal()
	fallback := false
	res, err := h.generator.Generate(ctx, data)
	if err != nil {
		h.log.Errorw("Signal generation failed, sending HOLD", "token", req.Token, "error", err)
		fallback = true
	} else {
		reply = &message.TradeSignal{Signal: res.Signal, Percent: res.Percent}
		h.log.Infow("Signal generated",
			"token", req.Token,
			"signal", res.Signal,
			"percent", res.Percent,
			"analysis", res.Analysis,
		)
	}

	if err := h.messenger.Send(ctx, req.Requester, reply); err != nil {
		metrics.Completions.WithLabelValues(string(pending.KindTrading), "error").Inc()
		return errors.Wrapf(err, "send trade signal to %s", req.Requester)
	}

	status := "success"
	if fallback {
		status = "fallback"
	}
	metrics.Completions.WithLabelValues(string(pending.KindTrading), status).Inc()
	h.log.Infow("✓ Sent trade signal",
		"requester", req.Requester,
		"signal", reply.Signal,
		"percent", reply.Percent,
	)

	h.record(ctx, req, q, reply, res.Analysis, fallback)
	return nil
}

func (h *TradingCompletion) record(ctx context.Context, req *pending.Request, q quote.Quote, sig *message.TradeSignal, analysis string, fallback bool) {
	if h.journal == nil {
		return
	}

	tc := req.Trading
	if tc == nil {
		tc = &pending.TradingContext{}
	}
	entry := &journal.SignalEntry{
		Requester:     req.Requester,
		Token:         req.Token,
		Signal:        string(sig.Signal),
		Percent:       decimal.NewFromFloat(sig.Percent),
		ProvidedPrice: decimal.NewFromFloat(tc.ProvidedPrice),
		QuotedPrice:   decimal.NewFromFloat(q.Price),
		EntryPrice:    decimal.NewFromFloat(req.EntryPrice),
		Holdings:      decimal.NewFromFloat(tc.CurrentHoldings),
		Analysis:      analysis,
		Fallback:      fallback,
	}
	if err := h.journal.Record(ctx, entry); err != nil {
		h.log.Errorw("Failed to journal trade signal", "token", req.Token, "error", err)
	}
}
