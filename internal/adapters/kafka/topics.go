package kafka

import "strings"

// maxTopicLength is the broker limit on topic names
const maxTopicLength = 249

// TopicName makes name a legal Kafka topic by replacing every character
// outside [a-zA-Z0-9._-] with '_' and truncating to the broker limit.
func TopicName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if len(out) > maxTopicLength {
		out = out[:maxTopicLength]
	}
	return out
}
