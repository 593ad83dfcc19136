// Package pricing correlates asynchronous price quotes from the peer price
// agent with the requests waiting for them.
package pricing

import (
	"context"

	"fiatrouter/internal/domain/message"
)

// Messenger delivers a payload to another agent. A nil error means the message
// was handed to the transport, not that it was delivered.
type Messenger interface {
	Send(ctx context.Context, recipient string, payload message.Payload) error
}
