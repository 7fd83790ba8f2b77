package dialogue

import "strings"

// Intent is the closed set of actions a shopper message can map to.
type Intent string

const (
	IntentSearchProducts Intent = "search_products"
	IntentAddToCart      Intent = "add_to_cart"
	IntentViewCart       Intent = "view_cart"
	IntentProductView    Intent = "product_view"
	IntentRemoveFromCart Intent = "remove_from_cart"
	IntentFriendlyChat   Intent = "friendly_chat"
)

// Intents lists every intent in prompt order.
func Intents() []Intent {
	return []Intent{
		IntentSearchProducts,
		IntentAddToCart,
		IntentViewCart,
		IntentProductView,
		IntentRemoveFromCart,
		IntentFriendlyChat,
	}
}

var intentAliases = map[string]Intent{
	"search_products":  IntentSearchProducts,
	"search_product":   IntentSearchProducts,
	"search":           IntentSearchProducts,
	"find":             IntentSearchProducts,
	"add_to_cart":      IntentAddToCart,
	"add":              IntentAddToCart,
	"add_cart":         IntentAddToCart,
	"buy":              IntentAddToCart,
	"view_cart":        IntentViewCart,
	"cart":             IntentViewCart,
	"show_cart":        IntentViewCart,
	"product_view":     IntentProductView,
	"view_product":     IntentProductView,
	"product_details":  IntentProductView,
	"product":          IntentProductView,
	"remove_from_cart": IntentRemoveFromCart,
	"remove":           IntentRemoveFromCart,
	"remove_cart":      IntentRemoveFromCart,
	"delete":           IntentRemoveFromCart,
	"friendly_chat":    IntentFriendlyChat,
	"chat":             IntentFriendlyChat,
	"greeting":         IntentFriendlyChat,
	"small_talk":       IntentFriendlyChat,
}

// ParseIntent maps a label onto the closed set. Unknown labels yield
// IntentFriendlyChat and ok=false.
func ParseIntent(label string) (intent Intent, ok bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if i, found := intentAliases[key]; found {
		return i, true
	}
	return IntentFriendlyChat, false
}
