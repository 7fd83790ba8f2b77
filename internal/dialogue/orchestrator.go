package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/metrics"
	"github.com/aiox-platform/shopassist/internal/nats"
)

var (
	ErrMissingUser    = errors.New("user id is required")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
)

const (
	DefaultHistoryTurns = 10
	MaxHistoryTurns     = 100
	searchResultLimit   = 10

	intentReset = "conversation_reset"
)

// Action labels reported in TurnResult.ActionsPerformed.
const (
	ActionSlotFilling   = "slot_filling"
	ActionClarification = "clarification"
	ActionReset         = "conversation_reset"
)

// TurnResult is the assistant's answer to one message.
type TurnResult struct {
	Response         string                 `json:"response"`
	Products         []catalog.Product      `json:"products"`
	ActionsPerformed []string               `json:"actions_performed"`
	ConversationID   string                 `json:"conversation_id"`
	Intent           Intent                 `json:"intent,omitempty"`
	Confidence       float64                `json:"confidence"`
	SlotState        conversation.SlotState `json:"slot_state"`
}

type Config struct {
	ChatTimeout      time.Duration
	HistoryWindow    int
	MaxMessageLength int
}

// Deps are the orchestrator's collaborators. History, Provider, Budget and
// Events may be nil.
type Deps struct {
	Catalog    ProductCatalog
	Cart       CartService
	Contexts   ContextStore
	History    HistoryStore
	Classifier IntentClassifier
	Provider   CompletionProvider
	Budget     CompletionBudget
	Events     EventPublisher
}

// Orchestrator runs one dialogue turn end to end. It holds no per-user
// state; everything lives in the context store between turns.
type Orchestrator struct {
	deps     Deps
	cfg      Config
	resolver *Resolver
	now      func() time.Time
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = 20 * time.Second
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 2000
	}
	return &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		resolver: NewResolver(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// turn is the mutable state of a single HandleTurn call.
type turn struct {
	userID   string
	message  string
	conv     *conversation.Context
	cls      Classification
	history  []conversation.Message
	response string
	products []catalog.Product
	actions  []string
}

func (t *turn) reply(response string, actions ...string) {
	t.response = response
	t.actions = append(t.actions, actions...)
}

// HandleTurn classifies the message, runs the matching action and persists
// the updated context. Only invalid input returns an error.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, message string) (*TurnResult, error) {
	start := time.Now()

	userID = strings.TrimSpace(userID)
	message = strings.TrimSpace(message)
	if err := o.validate(userID, message); err != nil {
		return nil, err
	}

	conv := o.loadContext(ctx, userID)
	t := &turn{
		userID:  userID,
		message: message,
		conv:    conv,
		history: append([]conversation.Message(nil), conv.Recent(o.cfg.HistoryWindow)...),
	}

	t.cls = o.deps.Classifier.Classify(ctx, userID, message, conv)
	if t.cls.Intent != IntentSearchProducts && conv.Slots.Phase() == conversation.SlotPartial {
		conv.Slots = conv.Slots.Reset()
	}
	conv.Append(conversation.RoleUser, message, o.now())

	switch t.cls.Intent {
	case IntentSearchProducts:
		o.searchProducts(ctx, t)
	case IntentAddToCart:
		o.addToCart(ctx, t)
	case IntentProductView:
		o.viewProduct(ctx, t)
	case IntentRemoveFromCart:
		o.removeFromCart(ctx, t)
	case IntentViewCart:
		o.viewCart(ctx, t)
	default:
		o.friendlyChat(ctx, t)
	}

	conv.CurrentIntent = string(t.cls.Intent)
	if n := len(t.actions); n > 0 {
		conv.LastAction = t.actions[n-1]
	}
	conv.Append(conversation.RoleAssistant, t.response, o.now())

	o.saveContext(ctx, conv)
	meta := turnMetadata{
		SlotState:  conv.Slots,
		Confidence: t.cls.Confidence,
		Source:     t.cls.Source,
		Actions:    t.actions,
	}
	o.appendHistory(ctx, conv, string(t.cls.Intent), t.message, t.response, meta)

	latency := time.Since(start)
	o.publishTurn(ctx, conv, t, latency)
	metrics.TurnsTotal.WithLabelValues(string(t.cls.Intent)).Inc()
	metrics.TurnDuration.Observe(latency.Seconds())

	slog.Debug("dialogue turn handled",
		"user_id", userID,
		"session_id", conv.SessionID,
		"intent", t.cls.Intent,
		"source", t.cls.Source,
		"confidence", t.cls.Confidence,
		"actions", t.actions,
		"latency_ms", latency.Milliseconds())

	products := t.products
	if products == nil {
		products = []catalog.Product{}
	}
	return &TurnResult{
		Response:         t.response,
		Products:         products,
		ActionsPerformed: t.actions,
		ConversationID:   conv.SessionID,
		Intent:           t.cls.Intent,
		Confidence:       t.cls.Confidence,
		SlotState:        conv.Slots,
	}, nil
}

// ResetConversation starts a fresh session. History rows are kept.
func (o *Orchestrator) ResetConversation(ctx context.Context, userID string) (*TurnResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	conv := conversation.NewContext(userID)
	conv.LastAction = ActionReset
	o.saveContext(ctx, conv)

	meta := resetMetadata{
		Action:         "reset",
		SessionID:      conv.SessionID,
		ResetTimestamp: o.now(),
	}
	o.appendHistory(ctx, conv, intentReset, replyResetRequested, replyReset, meta)

	slog.Info("conversation reset", "user_id", userID, "session_id", conv.SessionID)

	return &TurnResult{
		Response:         replyReset,
		Products:         []catalog.Product{},
		ActionsPerformed: []string{ActionReset},
		ConversationID:   conv.SessionID,
		Confidence:       1,
		SlotState:        conv.Slots,
	}, nil
}

// GetHistory returns the last limit turns (two rows each) in chronological order.
func (o *Orchestrator) GetHistory(ctx context.Context, userID string, limit int) ([]conversation.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryTurns
	case limit > MaxHistoryTurns:
		limit = MaxHistoryTurns
	}
	if o.deps.History == nil {
		return []conversation.Record{}, nil
	}

	records, err := o.deps.History.LoadRecent(ctx, userID, limit*2)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []conversation.Record{}
	}
	return records, nil
}

func (o *Orchestrator) validate(userID, message string) error {
	switch {
	case userID == "":
		return ErrMissingUser
	case message == "":
		return ErrEmptyMessage
	case utf8.RuneCountInString(message) > o.cfg.MaxMessageLength:
		return ErrMessageTooLong
	}
	return nil
}

// loadContext falls back to a fresh context when the store fails, and seeds
// an empty one from persisted history.
func (o *Orchestrator) loadContext(ctx context.Context, userID string) *conversation.Context {
	conv, err := o.deps.Contexts.Load(ctx, userID)
	if err != nil || conv == nil {
		if err != nil {
			slog.Warn("loading conversation context, starting fresh", "error", err, "user_id", userID)
		}
		conv = conversation.NewContext(userID)
	}
	if len(conv.Messages) == 0 && o.deps.History != nil {
		records, err := o.deps.History.LoadRecent(ctx, userID, o.cfg.HistoryWindow)
		if err != nil {
			slog.Warn("restoring context from history", "error", err, "user_id", userID)
		} else {
			conv.Restore(records)
		}
	}
	return conv
}

func (o *Orchestrator) saveContext(ctx context.Context, conv *conversation.Context) {
	conv.UpdatedAt = o.now()
	if err := o.deps.Contexts.Save(ctx, conv); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("context").Inc()
		slog.Error("saving conversation context", "error", err, "user_id", conv.UserID)
	}
}

type turnMetadata struct {
	SlotState  conversation.SlotState `json:"slot_state"`
	Confidence float64                `json:"confidence"`
	Source     string                 `json:"source,omitempty"`
	Actions    []string               `json:"actions"`
}

type resetMetadata struct {
	Action         string    `json:"action"`
	SessionID      string    `json:"session_id"`
	ResetTimestamp time.Time `json:"reset_timestamp"`
}

func (o *Orchestrator) appendHistory(ctx context.Context, conv *conversation.Context, intent, userText, assistantText string, meta any) {
	if o.deps.History == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		slog.Error("marshaling history metadata", "error", err)
		raw = json.RawMessage(`{}`)
	}

	now := o.now()
	rows := []conversation.Record{
		{UserID: conv.UserID, Role: conversation.RoleUser, Message: userText, Intent: intent, SessionID: conv.SessionID, Metadata: raw, CreatedAt: now},
		{UserID: conv.UserID, Role: conversation.RoleAssistant, Message: assistantText, Intent: intent, SessionID: conv.SessionID, Metadata: raw, CreatedAt: now.Add(time.Microsecond)},
	}
	for _, rec := range rows {
		if err := o.deps.History.Append(ctx, rec); err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("history").Inc()
			slog.Error("appending conversation history", "error", err, "user_id", conv.UserID)
			return
		}
	}
}

func (o *Orchestrator) publishTurn(ctx context.Context, conv *conversation.Context, t *turn, latency time.Duration) {
	if o.deps.Events == nil {
		return
	}
	event := nats.TurnEvent{
		ID:         uuid.NewString(),
		UserID:     conv.UserID,
		SessionID:  conv.SessionID,
		Intent:     string(t.cls.Intent),
		Source:     t.cls.Source,
		Confidence: t.cls.Confidence,
		Actions:    t.actions,
		LatencyMs:  latency.Milliseconds(),
		OccurredAt: o.now(),
	}
	if err := o.deps.Events.PublishTurn(ctx, event); err != nil {
		slog.Warn("publishing turn event", "error", err, "user_id", conv.UserID)
	}
}
