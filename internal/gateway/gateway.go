package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/aiox-platform/shopassist/internal/dialogue"
	inats "github.com/aiox-platform/shopassist/internal/nats"
)

const consumerName = "chat-gateway"

const (
	replyNotAuthorized = "Sorry, this assistant is not available for your account."
	replyTooLong       = "That message is too long. Could you shorten it?"
	replyUnavailable   = "Sorry, something went wrong on my side. Please try again."
)

// Assistant runs one dialogue turn.
type Assistant interface {
	HandleTurn(ctx context.Context, userID, message string) (*dialogue.TurnResult, error)
}

// OutboundPublisher queues replies for the XMPP relay.
type OutboundPublisher interface {
	PublishOutboundMessage(ctx context.Context, msg inats.OutboundMessage) error
}

// Gateway consumes inbound chat messages, runs each through the assistant
// and publishes the reply for XMPP delivery.
type Gateway struct {
	assistant   Assistant
	publisher   OutboundPublisher
	consumerMgr *inats.ConsumerManager
	router      *Router
	validator   *Validator
}

func NewGateway(
	assistant Assistant,
	publisher OutboundPublisher,
	consumerMgr *inats.ConsumerManager,
	router *Router,
	validator *Validator,
) *Gateway {
	return &Gateway{
		assistant:   assistant,
		publisher:   publisher,
		consumerMgr: consumerMgr,
		router:      router,
		validator:   validator,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	consumer, err := g.consumerMgr.EnsureConsumer(ctx, inats.StreamMessages, consumerName, inats.SubjectInboundMessage)
	if err != nil {
		return err
	}

	slog.Info("chat gateway started", "consumer", consumerName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("fetching inbound messages", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			g.processMessage(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (g *Gateway) processMessage(ctx context.Context, msg jetstream.Msg) {
	var inbound inats.InboundMessage
	if err := json.Unmarshal(msg.Data(), &inbound); err != nil {
		slog.Error("unmarshaling inbound message", "error", err)
		_ = msg.Term()
		return
	}

	slog.Debug("gateway processing message", "id", inbound.ID, "from", inbound.FromJID)

	route, err := g.router.Route(inbound)
	if err != nil {
		slog.Warn("routing inbound message", "error", err, "from", inbound.FromJID)
		_ = msg.Ack()
		return
	}

	if err := g.validator.Validate(route, inbound.Body); err != nil {
		slog.Warn("inbound message rejected", "error", err, "user_id", route.UserID)
		switch {
		case errors.Is(err, ErrDomainNotAllowed):
			g.reply(ctx, inbound, route, replyNotAuthorized)
		case errors.Is(err, ErrBodyTooLong):
			g.reply(ctx, inbound, route, replyTooLong)
		}
		_ = msg.Ack()
		return
	}

	result, err := g.assistant.HandleTurn(ctx, route.UserID, inbound.Body)
	if err != nil {
		slog.Error("handling chat turn", "error", err, "user_id", route.UserID)
		g.reply(ctx, inbound, route, replyUnavailable)
		_ = msg.Ack()
		return
	}

	if err := g.reply(ctx, inbound, route, result.Response); err != nil {
		// The turn is already persisted; redelivery would run it twice.
		_ = msg.Term()
		return
	}
	_ = msg.Ack()
}

func (g *Gateway) reply(ctx context.Context, inbound inats.InboundMessage, route *Route, body string) error {
	outbound := inats.OutboundMessage{
		ID:        uuid.New().String(),
		ToJID:     route.ReplyTo,
		FromJID:   route.ReplyFrom,
		Body:      body,
		InReplyTo: inbound.ID,
	}
	if err := g.publisher.PublishOutboundMessage(ctx, outbound); err != nil {
		slog.Error("publishing outbound message", "error", err, "user_id", route.UserID)
		return err
	}
	return nil
}
