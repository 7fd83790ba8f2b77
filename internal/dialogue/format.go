package dialogue

import (
	"fmt"
	"strings"

	"github.com/aiox-platform/shopassist/internal/cart"
	"github.com/aiox-platform/shopassist/internal/catalog"
)

const maxListedProducts = 5

const (
	replyAskCategory     = "What type of product are you looking for? (shirt, pants, shoes, etc.)"
	replyAskStyleOrColor = "Do you have a preferred style or color in mind?"
	replyClarifyProduct  = "Which product did you mean? You can say 'the first one' or give me the product number."
	replyConfirmRemoval  = "Just to confirm, which item would you like to remove from your cart?"
	replyNoResults       = "I couldn't find any products matching your criteria. Would you like to try different specifications?"
	replyEmptyCart       = "Your cart is empty. Would you like to browse some products?"
	replyChatFallback    = "I'm here to help with your shopping! Feel free to ask about products or your cart."
	replyReset           = "Sure! Let's start fresh. What kind of product are you looking for?"
	replyResetRequested  = "Conversation reset requested"
	replySearchFailed    = "Sorry, I couldn't search the catalog right now. Please try again."
	replyCartFailed      = "Sorry, I couldn't retrieve your cart. Please try again."
	replyAddFailed       = "Sorry, there was an error adding to your cart. Please try again."
	replyRemoveFailed    = "Sorry, there was an error removing items. Please try again."
	replyViewFailed      = "Sorry, I couldn't retrieve product details. Please try again."
	replyNotInCart       = "❌ Could not find that item in your cart."
)

func formatProductList(products []catalog.Product) string {
	if len(products) == 0 {
		return replyNoResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d products for you:\n\n", len(products))
	for i, p := range products {
		if i == maxListedProducts {
			break
		}
		fmt.Fprintf(&b, "%d. %s (ID: %d)\n", i+1, p.Name, p.ID)
		fmt.Fprintf(&b, "   💰 Price: $%.2f\n", p.Price)
		fmt.Fprintf(&b, "   🎨 Color: %s | Style: %s\n", p.Color, p.Style)
		fmt.Fprintf(&b, "   📦 Stock: %d available\n\n", p.Stock)
	}
	b.WriteString("Would you like to see more details or add any to your cart?")
	return b.String()
}

func formatProductDetails(p *catalog.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 **%s** (ID: %d)\n\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "💰 Price: $%.2f\n", p.Price)
	fmt.Fprintf(&b, "🎨 Color: %s\n", p.Color)
	fmt.Fprintf(&b, "👔 Style: %s\n", p.Style)
	fmt.Fprintf(&b, "📊 Stock: %d available\n\n", p.Stock)
	if p.InStock() {
		b.WriteString("Would you like to add this to your cart?")
	} else {
		b.WriteString("⚠️ This product is currently out of stock.")
	}
	return b.String()
}

func formatCart(c *cart.Cart) string {
	if c == nil || c.Empty() {
		return replyEmptyCart
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 Your cart has %d item(s):\n\n", len(c.Items))
	for i, it := range c.Items {
		fmt.Fprintf(&b, "%d. %s (ID: %d)\n", i+1, it.Name, it.ProductID)
		fmt.Fprintf(&b, "   💰 $%.2f x %d = $%.2f\n", it.Price, it.Quantity, it.LineTotal())
		fmt.Fprintf(&b, "   🎨 %s | %s\n\n", it.Color, it.Style)
	}
	fmt.Fprintf(&b, "📊 Total: $%.2f\n\n", c.Total)
	b.WriteString("Would you like to checkout or continue shopping?")
	return b.String()
}

func productLabel(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("product #%d", id)
}

func lower(s string) string {
	return strings.ToLower(s)
}
