package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleClassifier(t *testing.T) {
	rc := NewRuleClassifier(nil)
	tests := []struct {
		message    string
		intent     Intent
		confidence float64
	}{
		{"add it to my cart", IntentAddToCart, 0.8},
		{"put the black one in my basket", IntentAddToCart, 0.8},
		{"remove the shirt from my cart", IntentRemoveFromCart, 0.8},
		{"take out product 4 from the cart", IntentRemoveFromCart, 0.8},
		{"what's in my cart?", IntentViewCart, 0.8},
		{"show me my cart", IntentViewCart, 0.8},
		{"buy the second one", IntentAddToCart, 0.75},
		{"add product 12", IntentAddToCart, 0.75},
		{"delete product 12", IntentRemoveFromCart, 0.6},
		{"remove the second one", IntentRemoveFromCart, 0.6},
		{"tell me about product 12", IntentProductView, 0.75},
		{"details of the first one", IntentProductView, 0.75},
		{"I'm looking for a jacket", IntentSearchProducts, 0.8},
		{"I need new clothes", IntentSearchProducts, 0.8},
		{"sneakers", IntentSearchProducts, 0.8},
		{"hello there", IntentFriendlyChat, 0.7},
		{"thanks!", IntentFriendlyChat, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			intent, conf := rc.Classify(tt.message)
			assert.Equal(t, tt.intent, intent)
			assert.InDelta(t, tt.confidence, conf, 1e-9)
		})
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		label string
		want  Intent
		ok    bool
	}{
		{"search_products", IntentSearchProducts, true},
		{" Search ", IntentSearchProducts, true},
		{"VIEW-CART", IntentViewCart, true},
		{"add to cart", IntentAddToCart, true},
		{"product_view", IntentProductView, true},
		{"remove", IntentRemoveFromCart, true},
		{"friendly_chat", IntentFriendlyChat, true},
		{"checkout", IntentFriendlyChat, false},
		{"", IntentFriendlyChat, false},
	}
	for _, tt := range tests {
		got, ok := ParseIntent(tt.label)
		assert.Equal(t, tt.want, got, tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
	}
}
