package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/pkg/errors"
)

func TestEnvelope_ChatMessageOverTheWire(t *testing.T) {
	chat := NewTextChat("What is the price of SOL?", true)

	env, err := NewEnvelope("fiatrouter", "coingecko", chat)
	require.NoError(t, err)
	assert.Equal(t, TypeChatMessage, env.Type)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "fiatrouter", decoded.Sender)
	assert.Equal(t, "coingecko", decoded.Recipient)

	got, err := decoded.ChatMessage()
	require.NoError(t, err)
	assert.Equal(t, chat.MsgID, got.MsgID)
	assert.Equal(t, []string{"What is the price of SOL?"}, got.Texts())
	require.Len(t, got.Content, 2)
	assert.Equal(t, ContentEndSession, got.Content[1].Type)
}

func TestEnvelope_WrongPayloadType(t *testing.T) {
	env, err := NewEnvelope("a", "b", &TradeSignal{Signal: SignalBuy, Percent: 10})
	require.NoError(t, err)

	_, err = env.ChatMessage()
	assert.True(t, errors.Is(err, errors.ErrMalformedMessage))

	sig, err := env.TradeSignal()
	require.NoError(t, err)
	assert.Equal(t, SignalBuy, sig.Signal)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "price of SOL is $150"},
		{"missing type", `{"sender":"a","payload":{}}`},
		{"missing sender", `{"type":"chat_message","payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.True(t, errors.Is(err, errors.ErrMalformedMessage))
		})
	}
}

func TestAcknowledgementReferencesMessage(t *testing.T) {
	chat := NewTextChat("hi", false)
	ack := NewAcknowledgement(chat)

	assert.Equal(t, chat.MsgID, ack.AcknowledgedMsgID)
	assert.Len(t, chat.Content, 1)
}

func TestPriceRequest_Validate(t *testing.T) {
	assert.NoError(t, (&PriceRequest{Token: "SOL"}).Validate())

	err := (&PriceRequest{Token: "  "}).Validate()
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestSignal_IsFinal(t *testing.T) {
	assert.True(t, SignalHold.IsFinal())
	assert.True(t, SignalSell.IsFinal())
	assert.False(t, SignalFetchingPrice.IsFinal())
	assert.False(t, SignalPending.IsFinal())
	assert.Equal(t, &TradeSignal{Signal: SignalHold, Percent: 0}, HoldSignal())
}
