package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aiox-platform/shopassist/internal/catalog"
)

// Role is stored as a smallint in the conversations table.
type Role int16

const (
	RoleUser      Role = 1
	RoleAssistant Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", int16(r))
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "user", "1":
		*r = RoleUser
	case "assistant", "2":
		*r = RoleAssistant
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

// Message is one utterance kept in the live context.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is a persisted history row.
type Record struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Role      Role            `json:"role"`
	Message   string          `json:"message"`
	Intent    string          `json:"intent,omitempty"`
	SessionID string          `json:"session_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Context is everything the assistant remembers about one shopper between turns.
type Context struct {
	UserID                  string            `json:"user_id"`
	SessionID               string            `json:"session_id"`
	Messages                []Message         `json:"messages"`
	CurrentIntent           string            `json:"current_intent,omitempty"`
	Slots                   SlotState         `json:"slots"`
	LastProductsShown       []catalog.Product `json:"last_products_shown,omitempty"`
	LastReferencedProductID int64             `json:"last_referenced_product_id,omitempty"`
	LastAction              string            `json:"last_action,omitempty"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// NewContext returns the empty initial context for a shopper.
func NewContext(userID string) *Context {
	return &Context{
		UserID:    userID,
		SessionID: NewSessionID(),
		Messages:  []Message{},
		UpdatedAt: time.Now().UTC(),
	}
}

// NewSessionID returns the 8-character id that groups history rows of one conversation.
func NewSessionID() string {
	return uuid.NewString()[:8]
}

// Append records a message in the live context.
func (c *Context) Append(role Role, text string, at time.Time) {
	c.Messages = append(c.Messages, Message{Role: role, Text: text, Timestamp: at})
	c.UpdatedAt = at
}

// Recent returns at most n trailing messages.
func (c *Context) Recent(n int) []Message {
	if n <= 0 || len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// Restore seeds the messages of an empty context from history rows given
// oldest first. Only rows of the latest session are used, and the context
// adopts that session id.
func (c *Context) Restore(records []Record) {
	if len(records) == 0 {
		return
	}
	session := records[len(records)-1].SessionID
	for _, r := range records {
		if r.SessionID != session {
			continue
		}
		c.Messages = append(c.Messages, Message{Role: r.Role, Text: r.Message, Timestamp: r.CreatedAt})
	}
	if session != "" {
		c.SessionID = session
	}
}

// Reset clears the context to its initial state under a new session id.
func (c *Context) Reset() {
	*c = *NewContext(c.UserID)
}
