package dialogue

import (
	"context"

	"github.com/aiox-platform/shopassist/internal/cart"
	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/nats"
)

type ProductCatalog interface {
	Search(ctx context.Context, c catalog.Criteria) ([]catalog.Product, error)
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
}

type CartService interface {
	AddItem(ctx context.Context, userID string, productID int64, quantity int) (*cart.Item, error)
	RemoveItem(ctx context.Context, userID string, productID int64) (*cart.Item, error)
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
}

type ContextStore interface {
	Load(ctx context.Context, userID string) (*conversation.Context, error)
	Save(ctx context.Context, c *conversation.Context) error
}

type HistoryStore interface {
	Append(ctx context.Context, rec conversation.Record) error
	LoadRecent(ctx context.Context, userID string, limit int) ([]conversation.Record, error)
}

// CompletionProvider is the chat completion backend. Classify returns the
// raw label the model chose.
type CompletionProvider interface {
	Classify(ctx context.Context, system, prompt string) (label string, confidence float64, err error)
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type EventPublisher interface {
	PublishTurn(ctx context.Context, event nats.TurnEvent) error
}

// CompletionBudget meters completion calls per shopper.
type CompletionBudget interface {
	Allow(ctx context.Context, userID string) bool
}

// IntentClassifier is what the orchestrator needs from classification.
type IntentClassifier interface {
	Classify(ctx context.Context, userID, message string, conv *conversation.Context) Classification
	Threshold() float64
}
