package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Hello World", "Hello World"},
		{"collapses whitespace", "  price\n\tof   SOL ", "price of SOL"},
		{"drops invalid utf8", "SOL\xff price", "SOL price"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate(10, "short"))
	assert.Equal(t, "abcd...", Truncate(7, "abcdefghij"))
	assert.Equal(t, "ab", Truncate(2, "abcdefghij"))
	assert.Equal(t, "unchanged", Truncate(0, "unchanged"))
}
