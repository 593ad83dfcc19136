package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/adapters/ai"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/templates"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type mapCache map[string]string

func (m mapCache) Get(_ context.Context, q string) (string, bool) {
	v, ok := m[q]
	return v, ok
}

func (m mapCache) Set(_ context.Context, q, text string) { m[q] = text }

func newTestAnalyst(t *testing.T, llm ai.Client) *Analyst {
	t.Helper()
	kb, err := DefaultKnowledgeBase()
	require.NoError(t, err)
	return NewAnalyst(kb, llm, templates.Get(), "fiatrouter-icm")
}

func TestAnalyst_AnalyzeUsesLLM(t *testing.T) {
	llm := &fakeLLM{reply: "SOL fits a core allocation."}
	analyst := newTestAnalyst(t, llm)

	text, err := analyst.Analyze(context.Background(), "Analyze SOL at $150 for portfolio inclusion")
	require.NoError(t, err)
	assert.Equal(t, "SOL fits a core allocation.", text)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Solana")
}

func TestAnalyst_AnalyzeFallsBackToFacts(t *testing.T) {
	analyst := newTestAnalyst(t, ai.DisabledClient{})

	text, err := analyst.Analyze(context.Background(), "Analyze SOL at $150 for portfolio inclusion")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "SOL (Solana) is a layer-1 asset"))
}

func TestAnalyst_AnalyzeUnknownToken(t *testing.T) {
	analyst := newTestAnalyst(t, &fakeLLM{reply: "unused"})

	_, err := analyst.Analyze(context.Background(), "Analyze XYZQ at $1")
	assert.True(t, errors.Is(err, errors.ErrAnalysisUnavailable))
}

func TestAnalyst_AnalyzeCaches(t *testing.T) {
	llm := &fakeLLM{reply: "narrative"}
	cache := mapCache{}
	analyst := newTestAnalyst(t, llm).WithCache(cache)

	q := "Analyze ETH at $3000 for portfolio inclusion"
	for i := 0; i < 3; i++ {
		text, err := analyst.Analyze(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, "narrative", text)
	}
	assert.Len(t, llm.prompts, 1)
	assert.Equal(t, "narrative", cache[q])
}

func TestAnalyst_Answer(t *testing.T) {
	t.Run("knowledge base hit phrased by llm", func(t *testing.T) {
		llm := &fakeLLM{reply: "Delegate your SOL to a validator."}
		ans, err := newTestAnalyst(t, llm).Answer(context.Background(), "How does staking work?")
		require.NoError(t, err)
		assert.Equal(t, "How does staking SOL work?", ans.SelectedQuestion)
		assert.Equal(t, "Delegate your SOL to a validator.", ans.Text)
	})

	t.Run("knowledge base hit without llm", func(t *testing.T) {
		ans, err := newTestAnalyst(t, ai.DisabledClient{}).Answer(context.Background(), "Tell me about memecoins")
		require.NoError(t, err)
		assert.Equal(t, "How risky are Solana memecoins?", ans.SelectedQuestion)
		assert.Contains(t, ans.Text, "highest-risk")
	})

	t.Run("token profile", func(t *testing.T) {
		ans, err := newTestAnalyst(t, ai.DisabledClient{}).Answer(context.Background(), "Tell me about Jupiter")
		require.NoError(t, err)
		assert.Equal(t, "What is Jupiter (JUP)?", ans.SelectedQuestion)
	})

	t.Run("general question answered by llm", func(t *testing.T) {
		ans, err := newTestAnalyst(t, &fakeLLM{reply: "Nobody knows."}).Answer(context.Background(), "Will it rain tomorrow?")
		require.NoError(t, err)
		assert.Equal(t, "Will it rain tomorrow?", ans.SelectedQuestion)
		assert.Equal(t, "Nobody knows.", ans.Text)
	})

	t.Run("nothing available", func(t *testing.T) {
		_, err := newTestAnalyst(t, ai.DisabledClient{}).Answer(context.Background(), "Will it rain tomorrow?")
		assert.True(t, errors.Is(err, errors.ErrAnalysisUnavailable))
	})
}
