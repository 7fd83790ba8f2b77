package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aiox-platform/shopassist/internal/cart"
	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/metrics"
)

const chatSystemPrompt = `You are a helpful e-commerce shopping assistant for an online clothing shop.
Keep responses concise and friendly. If the user asks about non-shopping topics,
gently redirect them to shopping-related topics. You can make small talk but
always try to be helpful with their shopping needs.`

func (o *Orchestrator) searchProducts(ctx context.Context, t *turn) {
	step := advanceSlots(t.conv.Slots, t.cls.Entities)
	if !step.Ready {
		t.conv.Slots = step.Slots
		metrics.SlotQuestionsTotal.WithLabelValues(step.Missing).Inc()
		t.reply(step.Question, ActionSlotFilling)
		return
	}

	products, err := o.deps.Catalog.Search(ctx, step.Slots.Criteria(searchResultLimit))
	if err != nil {
		slog.Error("catalog search", "error", err, "user_id", t.userID)
		t.conv.Slots = step.Slots
		t.reply(replySearchFailed, failed(IntentSearchProducts))
		return
	}

	t.conv.LastProductsShown = products
	t.conv.Slots = step.Slots.Reset()
	t.products = products
	t.reply(formatProductList(products), string(IntentSearchProducts))
}

func (o *Orchestrator) addToCart(ctx context.Context, t *turn) {
	ref := o.resolver.Resolve(t.cls.Entities, t.conv.LastProductsShown, t.conv.LastReferencedProductID)
	if !ref.Resolved() {
		t.reply(replyClarifyProduct, ActionClarification)
		return
	}

	item, err := o.deps.Cart.AddItem(ctx, t.userID, ref.ProductID, 1)
	if err != nil {
		t.reply(addFailureReply(err, ref.ProductID, shownName(t.conv, ref.ProductID)), failed(IntentAddToCart))
		metrics.CartActionsTotal.WithLabelValues("add", cartOutcome(err)).Inc()
		if !isCartOutcome(err) {
			slog.Error("adding to cart", "error", err, "user_id", t.userID, "product_id", ref.ProductID)
		}
		return
	}

	t.conv.LastReferencedProductID = ref.ProductID
	metrics.CartActionsTotal.WithLabelValues("add", "ok").Inc()
	t.reply(fmt.Sprintf("✅ Added %s to your cart!", productLabel(item.Name, ref.ProductID)), string(IntentAddToCart))
}

func (o *Orchestrator) viewProduct(ctx context.Context, t *turn) {
	ref := o.resolver.Resolve(t.cls.Entities, t.conv.LastProductsShown, t.conv.LastReferencedProductID)
	if !ref.Resolved() {
		t.reply(replyClarifyProduct, ActionClarification)
		return
	}

	p, err := o.deps.Catalog.GetByID(ctx, ref.ProductID)
	if err != nil {
		slog.Error("loading product", "error", err, "user_id", t.userID, "product_id", ref.ProductID)
		t.reply(replyViewFailed, failed(IntentProductView))
		return
	}
	if p == nil {
		t.reply(fmt.Sprintf("I couldn't find product %d. Please check the product ID.", ref.ProductID), failed(IntentProductView))
		return
	}

	t.conv.LastReferencedProductID = p.ID
	t.products = []catalog.Product{*p}
	t.reply(formatProductDetails(p), string(IntentProductView))
}

func (o *Orchestrator) removeFromCart(ctx context.Context, t *turn) {
	if t.cls.Confidence < o.deps.Classifier.Threshold() {
		t.reply(replyConfirmRemoval, ActionClarification)
		return
	}

	candidates := t.conv.LastProductsShown
	if len(candidates) == 0 && needsCandidates(t.cls.Entities) {
		c, err := o.deps.Cart.GetCart(ctx, t.userID)
		if err != nil {
			slog.Warn("loading cart for reference resolution", "error", err, "user_id", t.userID)
		} else {
			candidates = cartProducts(c)
		}
	}

	ref := o.resolver.Resolve(t.cls.Entities, candidates, t.conv.LastReferencedProductID)
	if !ref.Resolved() {
		t.reply(replyClarifyProduct, ActionClarification)
		return
	}

	item, err := o.deps.Cart.RemoveItem(ctx, t.userID, ref.ProductID)
	if err != nil {
		metrics.CartActionsTotal.WithLabelValues("remove", cartOutcome(err)).Inc()
		if errors.Is(err, cart.ErrItemNotInCart) {
			t.reply(replyNotInCart, failed(IntentRemoveFromCart))
			return
		}
		slog.Error("removing from cart", "error", err, "user_id", t.userID, "product_id", ref.ProductID)
		t.reply(replyRemoveFailed, failed(IntentRemoveFromCart))
		return
	}

	t.conv.LastReferencedProductID = ref.ProductID
	metrics.CartActionsTotal.WithLabelValues("remove", "ok").Inc()
	t.reply(fmt.Sprintf("🗑️ Removed %s from your cart.", productLabel(item.Name, ref.ProductID)), string(IntentRemoveFromCart))
}

func (o *Orchestrator) viewCart(ctx context.Context, t *turn) {
	c, err := o.deps.Cart.GetCart(ctx, t.userID)
	if err != nil {
		slog.Error("loading cart", "error", err, "user_id", t.userID)
		t.reply(replyCartFailed, failed(IntentViewCart))
		return
	}

	// Ordinals in the next turn count against the cart lines just listed.
	listed := cartProducts(c)
	t.conv.LastProductsShown = listed
	t.products = listed
	t.reply(formatCart(c), string(IntentViewCart))
}

func (o *Orchestrator) friendlyChat(ctx context.Context, t *turn) {
	if o.deps.Provider == nil || (o.deps.Budget != nil && !o.deps.Budget.Allow(ctx, t.userID)) {
		t.reply(replyChatFallback, string(IntentFriendlyChat))
		return
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.ChatTimeout)
	defer cancel()

	reply, err := o.deps.Provider.Generate(cctx, chatSystemPrompt, chatPrompt(t.history, t.message))
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Warn("chat completion failed, using canned reply", "error", err, "user_id", t.userID)
		t.reply(replyChatFallback, string(IntentFriendlyChat))
		return
	}
	t.reply(reply, string(IntentFriendlyChat))
}

func chatPrompt(history []conversation.Message, message string) string {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	fmt.Fprintf(&b, "user: %s", message)
	return b.String()
}

func failed(i Intent) string {
	return string(i) + "_failed"
}

// needsCandidates reports whether resolution could use a product list at all.
func needsCandidates(e Entities) bool {
	return len(e.ProductIDs) == 0 && (e.Ordinal != 0 || e.Color != "" || e.Style != "" || e.Category != "")
}

func cartProducts(c *cart.Cart) []catalog.Product {
	if c == nil {
		return nil
	}
	products := make([]catalog.Product, 0, len(c.Items))
	for _, it := range c.Items {
		products = append(products, catalog.Product{
			ID:    it.ProductID,
			Name:  it.Name,
			Price: it.Price,
			Color: it.Color,
			Style: it.Style,
		})
	}
	return products
}

func shownName(conv *conversation.Context, id int64) string {
	for _, p := range conv.LastProductsShown {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func addFailureReply(err error, id int64, name string) string {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		return fmt.Sprintf("I couldn't find product %d. Please check the product ID.", id)
	case errors.Is(err, cart.ErrOutOfStock):
		return fmt.Sprintf("Sorry, %s is out of stock right now.", productLabel(name, id))
	default:
		return replyAddFailed
	}
}

func isCartOutcome(err error) bool {
	return errors.Is(err, cart.ErrProductNotFound) || errors.Is(err, cart.ErrOutOfStock) || errors.Is(err, cart.ErrItemNotInCart)
}

func cartOutcome(err error) string {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, cart.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, cart.ErrItemNotInCart):
		return "not_in_cart"
	default:
		return "error"
	}
}
