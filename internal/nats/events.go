package nats

import (
	"time"
)

// FetchTimeout bounds each batch fetch in the consumer loops.
const FetchTimeout = 2 * time.Second

const (
	StreamMessages = "SHOPASSIST_MESSAGES"
	StreamEvents   = "SHOPASSIST_EVENTS"
)

const (
	SubjectMessagesAll     = "shopassist.messages.>"
	SubjectEventsAll       = "shopassist.events.>"
	SubjectInboundMessage  = "shopassist.messages.inbound"
	SubjectOutboundMessage = "shopassist.messages.outbound"
	SubjectTurnEvent       = "shopassist.events.turn"
)

// InboundMessage is published when an XMPP chat message reaches the component.
type InboundMessage struct {
	ID         string    `json:"id"`
	FromJID    string    `json:"from_jid"`
	ToJID      string    `json:"to_jid"`
	Body       string    `json:"body"`
	StanzaType string    `json:"stanza_type"`
	ReceivedAt time.Time `json:"received_at"`
}

// OutboundMessage carries an assistant reply back to an XMPP user.
type OutboundMessage struct {
	ID        string `json:"id"`
	ToJID     string `json:"to_jid"`
	FromJID   string `json:"from_jid"`
	Body      string `json:"body"`
	InReplyTo string `json:"in_reply_to,omitempty"`
}

// TurnEvent is emitted once per completed dialogue turn.
type TurnEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Intent     string    `json:"intent"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	Actions    []string  `json:"actions"`
	LatencyMs  int64     `json:"latency_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}
