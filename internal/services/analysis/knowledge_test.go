package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKnowledgeBaseLoads(t *testing.T) {
	kb, err := DefaultKnowledgeBase()
	require.NoError(t, err)
	assert.NotEmpty(t, kb.Tokens)
	assert.NotEmpty(t, kb.Entries)

	p, ok := kb.Token("sol")
	require.True(t, ok)
	assert.Equal(t, "Solana", p.Name)

	p, ok = kb.Token("Raydium")
	require.True(t, ok)
	assert.Equal(t, "RAY", p.Symbol)
}

func TestKnowledgeBase_TokensIn(t *testing.T) {
	kb, err := DefaultKnowledgeBase()
	require.NoError(t, err)

	got := kb.TokensIn("Compare SOL, solana and BONK at $0.00002")
	require.Len(t, got, 2)
	assert.Equal(t, "SOL", got[0].Symbol)
	assert.Equal(t, "BONK", got[1].Symbol)
}

func TestKnowledgeBase_Search(t *testing.T) {
	kb, err := DefaultKnowledgeBase()
	require.NoError(t, err)

	matches := kb.Search("what APY do I get from staking with a validator?", 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "How does staking SOL work?", matches[0].Question)
	assert.Equal(t, 3, matches[0].Score)

	assert.Empty(t, kb.Search("weather forecast", 3))
}

func TestLoadKnowledgeBase_Invalid(t *testing.T) {
	_, err := LoadKnowledgeBase([]byte("tokens: [{name: NoSymbol}]"))
	assert.Error(t, err)

	_, err = LoadKnowledgeBase([]byte("entries: [{question: q}]"))
	assert.Error(t, err)

	_, err = LoadKnowledgeBase([]byte("tokens: [unclosed"))
	assert.Error(t, err)
}
