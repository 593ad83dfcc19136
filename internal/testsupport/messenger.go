package testsupport

import (
	"context"
	"sync"

	"fiatrouter/internal/domain/message"
	"fiatrouter/pkg/errors"
)

// SentMessage is one payload captured by RecordingMessenger
type SentMessage struct {
	Recipient string
	Payload   message.Payload
}

// RecordingMessenger captures outbound payloads instead of delivering them.
// Sends to a recipient listed in FailFor, or any send while FailAll is set,
// return errors.ErrSendFailed.
type RecordingMessenger struct {
	mu      sync.Mutex
	sent    []SentMessage
	FailAll bool
	FailFor map[string]bool
}

// NewRecordingMessenger creates an empty recorder
func NewRecordingMessenger() *RecordingMessenger {
	return &RecordingMessenger{FailFor: map[string]bool{}}
}

// Send records payload for recipient
func (m *RecordingMessenger) Send(_ context.Context, recipient string, payload message.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll || m.FailFor[recipient] {
		return errors.Wrapf(errors.ErrSendFailed, "send to %s", recipient)
	}
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Payload: payload})
	return nil
}

// Sent returns a copy of everything sent so far
func (m *RecordingMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// SentTo returns the payloads sent to recipient, in order
func (m *RecordingMessenger) SentTo(recipient string) []message.Payload {
	var out []message.Payload
	for _, s := range m.Sent() {
		if s.Recipient == recipient {
			out = append(out, s.Payload)
		}
	}
	return out
}

// Reset forgets recorded messages
func (m *RecordingMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
