package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/services/analysis"
	"fiatrouter/internal/services/pricing"
	"fiatrouter/internal/services/signal"
	"fiatrouter/internal/testsupport"
	"fiatrouter/pkg/errors"
)

const (
	self = "fiatrouter"
	peer = "coingecko-agent"
)

// mockAnswerer implements Answerer for testing
type mockAnswerer struct {
	answerFunc func(context.Context, string) (analysis.Answer, error)
}

func (m *mockAnswerer) Answer(ctx context.Context, query string) (analysis.Answer, error) {
	if m.answerFunc != nil {
		return m.answerFunc(ctx, query)
	}
	return analysis.Answer{}, errors.ErrAnalysisUnavailable
}

// mockAnalyzer implements pricing.Analyzer for testing
type mockAnalyzer struct {
	analyzeFunc func(context.Context, string) (string, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, query string) (string, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, query)
	}
	return "", errors.ErrAnalysisUnavailable
}

type harness struct {
	svc       *Service
	store     *pending.MemoryStore
	messenger *testsupport.RecordingMessenger
	answerer  *mockAnswerer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := pending.NewMemoryStore()
	messenger := testsupport.NewRecordingMessenger()
	answerer := &mockAnswerer{}
	analyst := &mockAnalyzer{analyzeFunc: func(context.Context, string) (string, error) {
		return "Core holding, moderate risk.", nil
	}}

	correlator := pricing.NewCorrelator(store,
		pricing.NewChatCompletion(analyst, messenger),
		pricing.NewTradingCompletion(signal.NewRuleGenerator(signal.DefaultThresholds()), messenger, nil),
	)

	svc := NewService(Dependencies{
		PeerAddress: peer,
		Store:       store,
		Dispatcher:  pricing.NewDispatcher(store, messenger, peer),
		Correlator:  correlator,
		Answerer:    answerer,
		Messenger:   messenger,
	})

	return &harness{svc: svc, store: store, messenger: messenger, answerer: answerer}
}

func envelope(t *testing.T, sender string, payload message.Payload) *message.Envelope {
	t.Helper()
	env, err := message.NewEnvelope(sender, self, payload)
	require.NoError(t, err)
	return env
}

func textOf(t *testing.T, payload message.Payload) string {
	t.Helper()
	chat, ok := payload.(*message.ChatMessage)
	require.True(t, ok, "expected chat message, got %T", payload)
	texts := chat.Texts()
	require.Len(t, texts, 1)
	return texts[0]
}

func TestHandle_UserPriceQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	query := message.NewTextChat("I bought SOL at $120, what is the price of SOL now?", false)
	require.NoError(t, h.svc.Handle(ctx, envelope(t, "alice", query)))

	toAlice := h.messenger.SentTo("alice")
	require.Len(t, toAlice, 2)
	ack, ok := toAlice[0].(*message.ChatAcknowledgement)
	require.True(t, ok)
	assert.Equal(t, query.MsgID, ack.AcknowledgedMsgID)
	assert.Equal(t, FetchingText("SOL"), textOf(t, toAlice[1]))

	toPeer := h.messenger.SentTo(peer)
	require.Len(t, toPeer, 1)
	assert.Equal(t, "What is the price of SOL?", textOf(t, toPeer[0]))

	snapshot, err := h.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, pending.KindChat, snapshot[0].Kind)
	assert.Equal(t, 120.0, snapshot[0].EntryPrice)

	reply := message.NewTextChat("The current price of SOL is $150.23", false)
	require.NoError(t, h.svc.Handle(ctx, envelope(t, peer, reply)))

	toAlice = h.messenger.SentTo("alice")
	require.Len(t, toAlice, 3)
	final := textOf(t, toAlice[2])
	assert.Contains(t, final, "**Current SOL Price: $150.23000000 USD**")
	assert.Contains(t, final, "Core holding, moderate risk.")

	// peer replies are never acknowledged
	assert.Len(t, h.messenger.SentTo(peer), 1)

	count, err := h.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHandle_RepeatQueryKeepsOneEntryPerRequester(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.svc.Handle(ctx, envelope(t, "alice", message.NewTextChat("price of SOL", false))))
	require.NoError(t, h.svc.Handle(ctx, envelope(t, "alice", message.NewTextChat("price of BTC", false))))

	snapshot, err := h.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "BTC", snapshot[0].Token)
}

func TestHandle_KnowledgeQuery(t *testing.T) {
	h := newHarness(t)
	h.answerer.answerFunc = func(_ context.Context, query string) (analysis.Answer, error) {
		return analysis.Answer{SelectedQuestion: "How should I size positions?", Text: "Keep it small."}, nil
	}

	msg := message.NewTextChat("how big should my positions be", false)
	require.NoError(t, h.svc.Handle(context.Background(), envelope(t, "alice", msg)))

	toAlice := h.messenger.SentTo("alice")
	require.Len(t, toAlice, 2)
	assert.Equal(t, "**How should I size positions?**\n\nKeep it small.", textOf(t, toAlice[1]))
	assert.Empty(t, h.messenger.SentTo(peer))
}

func TestHandle_KnowledgeQueryFailure(t *testing.T) {
	h := newHarness(t)

	msg := message.NewTextChat("tell me something", false)
	require.NoError(t, h.svc.Handle(context.Background(), envelope(t, "alice", msg)))

	toAlice := h.messenger.SentTo("alice")
	require.Len(t, toAlice, 2)
	assert.Equal(t, QueryApology, textOf(t, toAlice[1]))
}

func TestHandle_ChatDispatchFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.messenger.FailFor[peer] = true

	require.NoError(t, h.svc.Handle(ctx, envelope(t, "alice", message.NewTextChat("price of SOL", false))))

	toAlice := h.messenger.SentTo("alice")
	require.Len(t, toAlice, 2)
	assert.Equal(t, PriceApology("SOL"), textOf(t, toAlice[1]))

	count, err := h.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHandle_SessionMarkersAndUnknownContent(t *testing.T) {
	h := newHarness(t)
	msg := &message.ChatMessage{Content: []message.Content{
		{Type: message.ContentStartSession},
		{Type: "resource"},
		{Type: message.ContentEndSession},
	}}

	require.NoError(t, h.svc.Handle(context.Background(), envelope(t, "alice", msg)))

	toAlice := h.messenger.SentTo("alice")
	require.Len(t, toAlice, 1)
	assert.IsType(t, &message.ChatAcknowledgement{}, toAlice[0])
}

func TestHandle_TradingRequestRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	req := &message.PriceRequest{
		Token:            "sol",
		CurrentPrice:     149,
		EntryPrice:       100,
		HistoricalPrices: []float64{},
		CurrentHoldings:  10,
	}
	require.NoError(t, h.svc.Handle(ctx, envelope(t, "trader", req)))

	toTrader := h.messenger.SentTo("trader")
	require.Len(t, toTrader, 1)
	assert.Equal(t, &message.TradeSignal{Signal: message.SignalFetchingPrice, Percent: 0}, toTrader[0])

	snapshot, err := h.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, pending.KindTrading, snapshot[0].Kind)
	assert.Equal(t, "SOL", snapshot[0].Token)
	assert.Equal(t, 149.0, snapshot[0].Trading.ProvidedPrice)

	reply := message.NewTextChat("The current price of SOL is $150", false)
	require.NoError(t, h.svc.Handle(ctx, envelope(t, peer, reply)))

	toTrader = h.messenger.SentTo("trader")
	require.Len(t, toTrader, 2)
	sig, ok := toTrader[1].(*message.TradeSignal)
	require.True(t, ok)
	// +50% with holdings is past take-profit
	assert.Equal(t, message.SignalSell, sig.Signal)
	assert.True(t, sig.Signal.IsFinal())
}

func TestHandle_TradingRequestFailuresSendSingleHold(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		failFor string
	}{
		{name: "empty token", token: "  "},
		{name: "dispatch failure", token: "SOL", failFor: peer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			if tt.failFor != "" {
				h.messenger.FailFor[tt.failFor] = true
			}

			err := h.svc.Handle(ctx, envelope(t, "trader", &message.PriceRequest{Token: tt.token, CurrentPrice: 100}))
			require.Error(t, err)

			toTrader := h.messenger.SentTo("trader")
			require.Len(t, toTrader, 1)
			assert.Equal(t, message.HoldSignal(), toTrader[0])

			count, err := h.store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	}
}

func TestHandle_PeerNonQuoteIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.svc.Handle(ctx, envelope(t, "alice", message.NewTextChat("price of SOL", false))))
	h.messenger.Reset()

	require.NoError(t, h.svc.Handle(ctx, envelope(t, peer, message.NewTextChat("Token not found", false))))

	assert.Empty(t, h.messenger.Sent())
	count, err := h.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandle_AckAndSignalAreLogged(t *testing.T) {
	h := newHarness(t)
	msg := message.NewTextChat("hi", false)

	require.NoError(t, h.svc.Handle(context.Background(), envelope(t, "alice", message.NewAcknowledgement(msg))))
	require.NoError(t, h.svc.Handle(context.Background(), envelope(t, "alice", message.HoldSignal())))
	assert.Empty(t, h.messenger.Sent())
}

func TestHandle_UnknownType(t *testing.T) {
	h := newHarness(t)
	env := &message.Envelope{Type: "telemetry", Sender: "alice"}

	err := h.svc.Handle(context.Background(), env)
	assert.True(t, errors.Is(err, errors.ErrUnknownMessageType))
}
