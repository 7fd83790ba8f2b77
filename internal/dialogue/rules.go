package dialogue

import "regexp"

var (
	cartWords    = regexp.MustCompile(`\b(?:cart|basket)\b`)
	addWords     = regexp.MustCompile(`\b(?:add|put)\b`)
	buyWords     = regexp.MustCompile(`\b(?:add|buy|purchase)\b`)
	removeWords  = regexp.MustCompile(`\b(?:remove|delete|take\s+out|drop)\b`)
	detailWords  = regexp.MustCompile(`\b(?:product|item|details?|tell\s+me\s+about|more\s+about)\b`)
	searchWords  = regexp.MustCompile(`\b(?:find|search|searching|looking|look\s+for|want|need|show)\b`)
	digitPresent = regexp.MustCompile(`\d`)
)

// RuleClassifier maps a message onto an intent with keyword rules only.
// It needs no network and never fails.
type RuleClassifier struct {
	extractor *Extractor
}

func NewRuleClassifier(extractor *Extractor) *RuleClassifier {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &RuleClassifier{extractor: extractor}
}

// Classify applies the rules in order; the first match wins.
func (rc *RuleClassifier) Classify(message string) (Intent, float64) {
	return rc.classify(lower(message), rc.extractor.Extract(message))
}

func (rc *RuleClassifier) classify(text string, e Entities) (Intent, float64) {
	hasCart := cartWords.MatchString(text)
	switch {
	case hasCart && addWords.MatchString(text):
		return IntentAddToCart, 0.8
	case hasCart && removeWords.MatchString(text):
		return IntentRemoveFromCart, 0.8
	case hasCart:
		return IntentViewCart, 0.8
	case buyWords.MatchString(text) && e.HasReference():
		return IntentAddToCart, 0.75
	case removeWords.MatchString(text) && e.HasReference():
		return IntentRemoveFromCart, 0.6
	case detailWords.MatchString(text) && (digitPresent.MatchString(text) || e.Ordinal != 0):
		return IntentProductView, 0.75
	case searchWords.MatchString(text) || e.Category != "":
		return IntentSearchProducts, 0.8
	default:
		return IntentFriendlyChat, 0.7
	}
}
