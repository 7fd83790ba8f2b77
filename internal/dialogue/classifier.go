package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/llm"
	"github.com/aiox-platform/shopassist/internal/metrics"
)

// Classification sources.
const (
	SourceLLM     = "llm"
	SourceRules   = "rules"
	SourceContext = "context"
)

// Fallback reasons recorded when the rule classifier answers instead of the model.
const (
	ReasonNotConfigured   = "not_configured"
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonTimeout         = "timeout"
	ReasonRateLimited     = "rate_limited"
	ReasonMalformed       = "malformed"
	ReasonUnknownLabel    = "unknown_label"
	ReasonProviderError   = "provider_error"
)

type Classification struct {
	Intent         Intent   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	Source         string   `json:"source"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
	Entities       Entities `json:"entities"`
}

type ClassifierConfig struct {
	Threshold    float64
	Timeout      time.Duration
	HistoryTurns int
}

// Classifier asks the completion provider for an intent and falls back to
// RuleClassifier whenever the provider cannot give a usable answer.
type Classifier struct {
	provider  CompletionProvider
	budget    CompletionBudget
	extractor *Extractor
	rules     *RuleClassifier
	cfg       ClassifierConfig
}

// NewClassifier accepts a nil provider (rules only) and a nil budget (unmetered).
func NewClassifier(provider CompletionProvider, budget CompletionBudget, cfg ClassifierConfig) *Classifier {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 6
	}
	extractor := NewExtractor()
	return &Classifier{
		provider:  provider,
		budget:    budget,
		extractor: extractor,
		rules:     NewRuleClassifier(extractor),
		cfg:       cfg,
	}
}

func (c *Classifier) Threshold() float64 {
	return c.cfg.Threshold
}

// Classify never fails; conv may be nil for a first message.
func (c *Classifier) Classify(ctx context.Context, userID, message string, conv *conversation.Context) Classification {
	ents := c.extractor.Extract(message)

	if cls, ok := c.continuation(message, ents, conv); ok {
		return c.record(cls)
	}

	if c.provider == nil {
		return c.fallback(message, ents, ReasonNotConfigured, nil)
	}
	if c.budget != nil && !c.budget.Allow(ctx, userID) {
		return c.fallback(message, ents, ReasonBudgetExhausted, nil)
	}

	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	label, confidence, err := c.provider.Classify(cctx, classifySystemPrompt, c.buildPrompt(message, conv))
	if err != nil {
		return c.fallback(message, ents, reasonFor(cctx, err), err)
	}

	intent, ok := ParseIntent(label)
	if !ok {
		return c.fallback(message, ents, ReasonUnknownLabel, fmt.Errorf("label %q", label))
	}

	return c.record(Classification{
		Intent:     intent,
		Confidence: c.confidence(confidence),
		Source:     SourceLLM,
		Entities:   ents,
	})
}

// continuation keeps an unfinished search going when the shopper answers a
// slot question with bare attributes ("casual in black").
func (c *Classifier) continuation(message string, ents Entities, conv *conversation.Context) (Classification, bool) {
	if conv == nil || conv.CurrentIntent != string(IntentSearchProducts) {
		return Classification{}, false
	}
	if conv.Slots.Phase() != conversation.SlotPartial || !ents.HasSlotValues() {
		return Classification{}, false
	}
	// Anaphora alone ("make it black") still answers the slot question.
	text := lower(message)
	if cartWords.MatchString(text) || removeWords.MatchString(text) || ents.Ordinal != 0 || len(ents.ProductIDs) > 0 {
		return Classification{}, false
	}
	return Classification{
		Intent:     IntentSearchProducts,
		Confidence: 0.9,
		Source:     SourceContext,
		Entities:   ents,
	}, true
}

func (c *Classifier) fallback(message string, ents Entities, reason string, err error) Classification {
	intent, confidence := c.rules.classify(lower(message), ents)
	if reason != ReasonNotConfigured {
		slog.Warn("intent classification fell back to rules",
			"reason", reason,
			"error", err,
			"intent", intent)
	}
	metrics.ClassifierFallbacksTotal.WithLabelValues(reason).Inc()
	return c.record(Classification{
		Intent:         intent,
		Confidence:     confidence,
		Source:         SourceRules,
		FallbackReason: reason,
		Entities:       ents,
	})
}

func (c *Classifier) record(cls Classification) Classification {
	metrics.IntentClassificationsTotal.WithLabelValues(string(cls.Intent), cls.Source).Inc()
	return cls
}

func (c *Classifier) buildPrompt(message string, conv *conversation.Context) string {
	var b strings.Builder
	if conv != nil {
		if recent := conv.Recent(c.cfg.HistoryTurns); len(recent) > 0 {
			b.WriteString("Recent conversation:\n")
			for _, m := range recent {
				fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
			}
			b.WriteString("\n")
		}
		if conv.Slots.Phase() == conversation.SlotPartial {
			fmt.Fprintf(&b, "Search in progress: category=%q style=%q color=%q\n\n",
				conv.Slots.Category, conv.Slots.Style, conv.Slots.Color)
		}
	}
	fmt.Fprintf(&b, "Message: %s", message)
	return b.String()
}

func reasonFor(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, llm.ErrNotConfigured):
		return ReasonNotConfigured
	case errors.Is(err, llm.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, llm.ErrEmptyResponse) || errors.Is(err, llm.ErrMalformedResponse):
		return ReasonMalformed
	default:
		return ReasonProviderError
	}
}

// confidence treats an omitted score (NaN) as exactly meeting the threshold.
func (c *Classifier) confidence(v float64) float64 {
	if math.IsNaN(v) {
		return c.cfg.Threshold
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

var classifySystemPrompt = buildClassifySystemPrompt()

func buildClassifySystemPrompt() string {
	var b strings.Builder
	b.WriteString("You classify messages sent to an online clothing shop assistant.\n")
	b.WriteString("Choose exactly one intent:\n")
	descriptions := map[Intent]string{
		IntentSearchProducts: "the user wants to find or browse products",
		IntentAddToCart:      "the user wants to add a product to the cart",
		IntentViewCart:       "the user wants to see the cart",
		IntentProductView:    "the user wants details about one product",
		IntentRemoveFromCart: "the user wants to remove a product from the cart",
		IntentFriendlyChat:   "greetings, thanks or anything else",
	}
	for _, i := range Intents() {
		fmt.Fprintf(&b, "- %s: %s\n", i, descriptions[i])
	}
	b.WriteString(`Reply with JSON only: {"intent": "<intent>", "confidence": <0..1>}`)
	return b.String()
}
