package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fiatrouter/pkg/errors"
)

// Type identifies the payload carried by an Envelope
type Type string

const (
	TypeChatMessage  Type = "chat_message"
	TypeChatAck      Type = "chat_ack"
	TypePriceRequest Type = "price_request"
	TypeTradeSignal  Type = "trade_signal"
)

// Envelope frames every message exchanged between agents on the transport.
// The transport gives no request/response pairing; ID is only for tracing.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	SentAt    time.Time       `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Payload is implemented by every message body that can travel in an Envelope
type Payload interface {
	MessageType() Type
}

// NewEnvelope wraps payload for delivery from sender to recipient
func NewEnvelope(sender, recipient string, payload Payload) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s payload", payload.MessageType())
	}

	return &Envelope{
		ID:        uuid.New(),
		Type:      payload.MessageType(),
		Sender:    sender,
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Decode parses a raw transport record into an Envelope
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedMessage, err.Error())
	}
	if env.Type == "" || env.Sender == "" {
		return nil, errors.Wrap(errors.ErrMalformedMessage, "envelope requires type and sender")
	}
	return &env, nil
}

// Encode serializes the envelope for the transport
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ChatMessage decodes the payload as a chat message
func (e *Envelope) ChatMessage() (*ChatMessage, error) {
	var msg ChatMessage
	if err := e.decodePayload(TypeChatMessage, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ChatAcknowledgement decodes the payload as a chat acknowledgement
func (e *Envelope) ChatAcknowledgement() (*ChatAcknowledgement, error) {
	var ack ChatAcknowledgement
	if err := e.decodePayload(TypeChatAck, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// PriceRequest decodes the payload as a trading price request
func (e *Envelope) PriceRequest() (*PriceRequest, error) {
	var req PriceRequest
	if err := e.decodePayload(TypePriceRequest, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// TradeSignal decodes the payload as a trade signal
func (e *Envelope) TradeSignal() (*TradeSignal, error) {
	var sig TradeSignal
	if err := e.decodePayload(TypeTradeSignal, &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

func (e *Envelope) decodePayload(want Type, dest interface{}) error {
	if e.Type != want {
		return errors.Wrapf(errors.ErrMalformedMessage, "envelope type %s, expected %s", e.Type, want)
	}
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return errors.Wrapf(errors.ErrMalformedMessage, "decode %s payload: %v", want, err)
	}
	return nil
}
