// Package agent routes inbound envelopes to the price-correlation flows.
package agent

import (
	"context"
	"strings"

	"fiatrouter/internal/domain/message"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/services/analysis"
	"fiatrouter/internal/services/intent"
	"fiatrouter/internal/services/pricing"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

const (
	// QueryApology is sent when a knowledge question cannot be answered
	QueryApology = "I apologize, but I encountered an error processing your portfolio query. Please try again."
)

// FetchingText is the provisional chat reply while a quote is outstanding
func FetchingText(token string) string {
	return "Fetching current price for " + token + "... Please wait a moment."
}

// PriceApology is sent when a price lookup could not be started
func PriceApology(token string) string {
	return "I apologize, but I could not request the current price for " + token + ". Please try again."
}

// Dispatcher starts a price lookup with the peer
type Dispatcher interface {
	Request(ctx context.Context, token string) error
}

// Correlator resolves peer replies against pending requests
type Correlator interface {
	HandleReply(ctx context.Context, text string) (pricing.Outcome, error)
}

// Answerer answers knowledge questions synchronously
type Answerer interface {
	Answer(ctx context.Context, query string) (analysis.Answer, error)
}

// Dependencies wires a Service
type Dependencies struct {
	PeerAddress string
	Store       pending.Store
	Dispatcher  Dispatcher
	Correlator  Correlator
	Answerer    Answerer
	Messenger   pricing.Messenger
}

// Service handles every message delivered to this agent's inbox
type Service struct {
	peer       string
	store      pending.Store
	dispatcher Dispatcher
	correlator Correlator
	answerer   Answerer
	messenger  pricing.Messenger
	log        *logger.Logger
}

// NewService creates the inbound message router
func NewService(deps Dependencies) *Service {
	return &Service{
		peer:       deps.PeerAddress,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		correlator: deps.Correlator,
		answerer:   deps.Answerer,
		messenger:  deps.Messenger,
		log:        logger.Get().With("component", "agent"),
	}
}

// Handle routes one envelope by payload type and sender
func (s *Service) Handle(ctx context.Context, env *message.Envelope) error {
	switch env.Type {
	case message.TypeChatMessage:
		msg, err := env.ChatMessage()
		if err != nil {
			return err
		}
		if env.Sender == s.peer {
			return s.handlePeerReply(ctx, msg)
		}
		return s.handleUserChat(ctx, env.Sender, msg)

	case message.TypeChatAck:
		ack, err := env.ChatAcknowledgement()
		if err != nil {
			return err
		}
		s.log.Infow("Got acknowledgement", "sender", env.Sender, "msg_id", ack.AcknowledgedMsgID)
		return nil

	case message.TypePriceRequest:
		return s.handlePriceRequest(ctx, env)

	case message.TypeTradeSignal:
		sig, err := env.TradeSignal()
		if err != nil {
			return err
		}
		s.log.Infow("Ignoring trade signal", "sender", env.Sender, "signal", sig.Signal, "percent", sig.Percent)
		return nil

	default:
		return errors.Wrapf(errors.ErrUnknownMessageType, "%q from %s", env.Type, env.Sender)
	}
}

// handlePeerReply feeds every text item of a peer message to the correlator.
// Peer replies are not acknowledged.
func (s *Service) handlePeerReply(ctx context.Context, msg *message.ChatMessage) error {
	var errs errors.MultiError
	for _, text := range msg.Texts() {
		outcome, err := s.correlator.HandleReply(ctx, text)
		if err != nil {
			errs.Add(err)
			continue
		}
		s.log.Debugw("Peer reply handled", "outcome", outcome)
	}
	return errs.ToError()
}

func (s *Service) handleUserChat(ctx context.Context, sender string, msg *message.ChatMessage) error {
	if err := s.messenger.Send(ctx, sender, message.NewAcknowledgement(msg)); err != nil {
		s.log.Warnw("Failed to acknowledge chat message", "sender", sender, "msg_id", msg.MsgID, "error", err)
	}

	for _, item := range msg.Content {
		switch item.Type {
		case message.ContentStartSession:
			s.log.Infow("Session started", "sender", sender)
		case message.ContentEndSession:
			s.log.Infow("Session ended", "sender", sender)
		case message.ContentText:
			query := strings.TrimSpace(item.Text)
			if query == "" {
				continue
			}
			s.log.Infow("Got chat query", "sender", sender, "query", query)
			// A dispatched price lookup owns the rest of the message
			if s.handleQuery(ctx, sender, query) {
				return nil
			}
		default:
			s.log.Warnw("Unexpected content type", "sender", sender, "type", item.Type)
		}
	}
	return nil
}

// handleQuery answers one free-text query. Returns true when the query was
// taken over by the price lookup path.
func (s *Service) handleQuery(ctx context.Context, sender, query string) bool {
	if in, ok := intent.Parse(query); ok {
		s.log.Infow("Detected price query", "sender", sender, "token", in.Token, "entry_price", in.EntryPrice)

		if err := s.startChatLookup(ctx, sender, query, in); err != nil {
			s.log.Errorw("Failed to start price lookup", "sender", sender, "token", in.Token, "error", err)
			s.reply(ctx, sender, message.NewTextChat(PriceApology(in.Token), false))
			return true
		}
		s.reply(ctx, sender, message.NewTextChat(FetchingText(in.Token), false))
		return true
	}

	ans, err := s.answerer.Answer(ctx, query)
	if err != nil {
		s.log.Errorw("Failed to answer query", "sender", sender, "error", err)
		s.reply(ctx, sender, message.NewTextChat(QueryApology, false))
		return false
	}

	title := ans.SelectedQuestion
	if title == "" {
		title = query
	}
	s.reply(ctx, sender, message.NewTextChat("**"+title+"**\n\n"+ans.Text, false))
	return false
}

func (s *Service) startChatLookup(ctx context.Context, sender, query string, in intent.Intent) error {
	req := pending.NewChatRequest(sender, in.Token, query, in.EntryPrice)
	if err := s.store.Put(ctx, req); err != nil {
		return errors.Wrap(err, "store chat request")
	}
	return s.dispatcher.Request(ctx, in.Token)
}

// handlePriceRequest always re-quotes through the peer. Anything that fails
// before the lookup is on its way gets a single HOLD.
func (s *Service) handlePriceRequest(ctx context.Context, env *message.Envelope) error {
	err := s.startTradingLookup(ctx, env)
	if err != nil {
		s.log.Errorw("Failed to start trading lookup, sending HOLD", "sender", env.Sender, "error", err)
		s.reply(ctx, env.Sender, message.HoldSignal())
		return err
	}

	s.reply(ctx, env.Sender, &message.TradeSignal{Signal: message.SignalFetchingPrice, Percent: 0.0})
	return nil
}

func (s *Service) startTradingLookup(ctx context.Context, env *message.Envelope) error {
	msg, err := env.PriceRequest()
	if err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	token := strings.TrimSpace(msg.Token)
	s.log.Infow("Received price request",
		"sender", env.Sender,
		"token", token,
		"provided_price", msg.CurrentPrice,
	)

	req := pending.NewTradingRequest(env.Sender, token, msg.CurrentPrice, msg.EntryPrice, msg.CurrentHoldings, msg.HistoricalPrices)
	if err := s.store.Put(ctx, req); err != nil {
		return errors.Wrap(err, "store trading request")
	}
	return s.dispatcher.Request(ctx, token)
}

func (s *Service) reply(ctx context.Context, recipient string, payload message.Payload) {
	if err := s.messenger.Send(ctx, recipient, payload); err != nil {
		s.log.Errorw("Failed to send reply", "recipient", recipient, "type", payload.MessageType(), "error", err)
	}
}
