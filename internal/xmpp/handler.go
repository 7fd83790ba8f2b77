package xmpp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gosrc.io/xmpp"
	"gosrc.io/xmpp/stanza"

	"github.com/aiox-platform/shopassist/internal/metrics"
	inats "github.com/aiox-platform/shopassist/internal/nats"
)

const publishTimeout = 5 * time.Second

const replyUnavailable = "Sorry, I can't take messages right now. Please try again in a moment."

// InboundPublisher hands chat messages to the gateway.
type InboundPublisher interface {
	PublishInboundMessage(ctx context.Context, msg inats.InboundMessage) error
}

// Handler processes incoming XMPP stanzas and bridges them to NATS.
type Handler struct {
	publisher InboundPublisher
}

func NewHandler(publisher InboundPublisher) *Handler {
	return &Handler{publisher: publisher}
}

// HandleMessage publishes chat messages with a body. Error stanzas and
// bodiless messages (chat states, receipts) are ignored.
func (h *Handler) HandleMessage(s xmpp.Sender, p stanza.Packet) {
	msg, ok := p.(stanza.Message)
	if !ok {
		return
	}
	if msg.Type == "error" || strings.TrimSpace(msg.Body) == "" {
		return
	}

	slog.Debug("XMPP message received",
		"from", msg.From,
		"to", msg.To,
		"type", string(msg.Type),
	)
	metrics.XMPPMessagesTotal.WithLabelValues("inbound").Inc()

	inbound := inats.InboundMessage{
		ID:         uuid.New().String(),
		FromJID:    msg.From,
		ToJID:      msg.To,
		Body:       msg.Body,
		StanzaType: string(msg.Type),
		ReceivedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := h.publisher.PublishInboundMessage(ctx, inbound); err != nil {
		slog.Error("publishing inbound message", "error", err, "from", msg.From)
		h.sendError(s, msg.From, msg.To, replyUnavailable)
	}
}

// HandlePresence auto-approves subscription requests so users can add the
// assistant to their roster.
func (h *Handler) HandlePresence(s xmpp.Sender, p stanza.Packet) {
	pres, ok := p.(stanza.Presence)
	if !ok {
		return
	}

	slog.Debug("XMPP presence received",
		"from", pres.From,
		"to", pres.To,
		"type", string(pres.Type),
	)

	if pres.Type == "subscribe" {
		reply := stanza.Presence{
			Attrs: stanza.Attrs{
				From: pres.To,
				To:   pres.From,
				Type: "subscribed",
			},
		}
		if err := s.Send(reply); err != nil {
			slog.Error("sending presence subscribed reply", "error", err)
		}
	}
}

func (h *Handler) HandleIQ(_ xmpp.Sender, p stanza.Packet) {
	iq, ok := p.(*stanza.IQ)
	if !ok {
		return
	}
	slog.Debug("XMPP IQ received", "from", iq.From, "to", iq.To, "type", string(iq.Type))
}

// SendOutboundMessage sends an assistant reply as a chat stanza.
func (h *Handler) SendOutboundMessage(s xmpp.Sender, outbound inats.OutboundMessage) error {
	msg := stanza.Message{
		Attrs: stanza.Attrs{
			From: outbound.FromJID,
			To:   outbound.ToJID,
			Type: "chat",
			Id:   outbound.ID,
		},
		Body: outbound.Body,
	}
	if err := s.Send(msg); err != nil {
		return err
	}
	metrics.XMPPMessagesTotal.WithLabelValues("outbound").Inc()
	return nil
}

func (h *Handler) sendError(s xmpp.Sender, to, from, body string) {
	msg := stanza.Message{
		Attrs: stanza.Attrs{
			From: from,
			To:   to,
			Type: "chat",
		},
		Body: body,
	}
	if err := s.Send(msg); err != nil {
		slog.Error("sending error message", "error", err)
	}
}
