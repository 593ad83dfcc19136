package kafka

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already legal", "agents.inbox.fiatrouter-icm", "agents.inbox.fiatrouter-icm"},
		{"bech32 address", "agents.inbox.agent1qfkgrw7tay", "agents.inbox.agent1qfkgrw7tay"},
		{"colon and slash", "agents.inbox.user:alice/1", "agents.inbox.user_alice_1"},
		{"unicode", "agents.inbox.bøb", "agents.inbox.b_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TopicName(tt.input))
		})
	}
}

func TestTopicName_Truncates(t *testing.T) {
	got := TopicName(strings.Repeat("a", 300))
	assert.Len(t, got, maxTopicLength)
}
