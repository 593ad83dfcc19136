package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	a := NormalizeQuery("Analyze SOL at $150.02 for portfolio inclusion", 0.01)
	b := NormalizeQuery("analyze   sol at $150.40 for portfolio inclusion", 0.01)
	c := NormalizeQuery("Analyze SOL at $180 for portfolio inclusion", 0.01)
	d := NormalizeQuery("Analyze ETH at $150.02 for portfolio inclusion", 0.01)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotContains(t, a, "150")
}

func TestNormalizeQueryKeepsZero(t *testing.T) {
	assert.Equal(t, "price 0", NormalizeQuery("Price 0", 0.01))
}
