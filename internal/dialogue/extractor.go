package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/conversation"
)

// OrdinalLast marks "the last one"; it resolves against the list length.
const OrdinalLast = -1

// Entities is everything the extractor could read from one message.
type Entities struct {
	Category    string              `json:"category,omitempty"`
	Style       string              `json:"style,omitempty"`
	Color       string              `json:"color,omitempty"`
	PriceRange  *catalog.PriceRange `json:"price_range,omitempty"`
	Ordinal     int                 `json:"ordinal,omitempty"`
	ProductIDs  []int64             `json:"product_ids,omitempty"`
	HasAnaphora bool                `json:"has_anaphora,omitempty"`
}

// Slots returns the slot values found in the message.
func (e Entities) Slots() conversation.SlotState {
	return conversation.SlotState{
		Category:   e.Category,
		Style:      e.Style,
		Color:      e.Color,
		PriceRange: e.PriceRange,
	}
}

func (e Entities) HasSlotValues() bool {
	return e.Category != "" || e.Style != "" || e.Color != "" || e.PriceRange != nil
}

// HasReference reports whether the message points at a specific product.
func (e Entities) HasReference() bool {
	return e.Ordinal != 0 || len(e.ProductIDs) > 0 || e.HasAnaphora
}

type vocabEntry struct {
	canonical string
	pattern   *regexp.Regexp
}

// wordsPattern matches any of the phrases as whole words, allowing an
// English plural suffix.
func wordsPattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `[\s-]+`)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)(?:e?s)?\b`)
}

var categoryVocab = []vocabEntry{
	{"shirt", wordsPattern("t-shirt", "shirt", "top", "blouse", "tee", "polo", "tank")},
	{"pants", wordsPattern("pants", "trousers", "jeans", "bottom", "shorts", "skirt")},
	{"dress", wordsPattern("evening wear", "sundress", "dress", "gown")},
	{"jacket", wordsPattern("jacket", "coat", "blazer", "hoodie", "sweater", "cardigan", "outerwear")},
	{"shoes", wordsPattern("shoe", "sneaker", "boot", "heel", "sandal", "footwear")},
	{"accessories", wordsPattern("accessories", "accessory", "handbag", "backpack", "purse", "bag", "watch", "jewelry")},
}

// Longest phrase first so "smart casual" is not read as "casual".
var styleVocab = []vocabEntry{
	{"smart casual", regexp.MustCompile(`\bsmart[\s-]+casual\b`)},
	{"casual", wordsPattern("casual")},
	{"formal", wordsPattern("formal")},
	{"trendy", wordsPattern("trendy")},
	{"classic", wordsPattern("classic")},
	{"elegant", wordsPattern("elegant")},
	{"sport", wordsPattern("sporty", "sport")},
	{"basic", wordsPattern("basic")},
}

var colorVocab = []vocabEntry{
	{"black", wordsPattern("black")},
	{"white", wordsPattern("white")},
	{"blue", wordsPattern("blue")},
	{"red", wordsPattern("red")},
	{"green", wordsPattern("green")},
	{"gray", wordsPattern("gray", "grey")},
	{"brown", wordsPattern("brown")},
	{"pink", wordsPattern("pink")},
	{"yellow", wordsPattern("yellow")},
	{"purple", wordsPattern("purple")},
}

const amount = `\$?(\d+(?:[.,]\d{3})*(?:\.\d+)?)(?:\s*(k)\b)?`

var (
	priceBetween = regexp.MustCompile(`\bbetween\s+` + amount + `\s+and\s+` + amount)
	priceSpan    = regexp.MustCompile(amount + `\s*(?:-|–|\bto\b)\s*` + amount)
	priceAround  = regexp.MustCompile(`(?:\b(?:around|about|approximately|roughly)\s+|~\s*)` + amount)
	priceUnder   = regexp.MustCompile(`\b(?:under|below|less\s+than|max|up\s+to)\s+` + amount)
	priceOver    = regexp.MustCompile(`\b(?:over|above|more\s+than|at\s+least)\s+` + amount)
	thousandsSep = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

	explicitID = regexp.MustCompile(`(?:\b(?:product|item|id)(?:\s+id)?(?:\s+no\.?)?\s*[:#]?\s*|#\s*)(\d+)\b`)
	numberLike = regexp.MustCompile(`\d+(?:[.,]\d+)*[[:alpha:]]*`)

	anaphora = regexp.MustCompile(`\b(?:it|that|this|this one|that one|the one)\b`)
)

type ordinalEntry struct {
	value   int
	pattern *regexp.Regexp
}

var ordinals = []ordinalEntry{
	{1, regexp.MustCompile(`\b(?:first|1st)\b`)},
	{2, regexp.MustCompile(`\b(?:second|2nd)\b`)},
	{3, regexp.MustCompile(`\b(?:third|3rd)\b`)},
	{4, regexp.MustCompile(`\b(?:fourth|4th)\b`)},
	{5, regexp.MustCompile(`\b(?:fifth|5th)\b`)},
	{OrdinalLast, regexp.MustCompile(`\blast\b`)},
}

// Vietnamese phrases; \b does not apply to non-ASCII letters so these use substring matching.
var vietnameseOrdinals = []struct {
	phrase string
	value  int
}{
	{"đầu tiên", 1},
	{"thứ nhất", 1},
	{"thứ hai", 2},
	{"thứ ba", 3},
	{"thứ tư", 4},
	{"thứ năm", 5},
	{"cuối cùng", OrdinalLast},
}

// Extractor reads slot values and product references out of free text.
// It is stateless and never fails.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (x *Extractor) Extract(message string) Entities {
	text := strings.ToLower(message)

	var e Entities
	e.Category = firstMatch(text, categoryVocab)
	e.Style = firstMatch(text, styleVocab)
	e.Color = firstMatch(text, colorVocab)

	pr, spans := extractPrice(text)
	e.PriceRange = pr
	e.Ordinal = extractOrdinal(text)
	e.ProductIDs = extractProductIDs(text, spans)
	e.HasAnaphora = anaphora.MatchString(text)
	return e
}

// firstMatch returns the canonical name of the vocabulary entry mentioned earliest.
func firstMatch(text string, vocab []vocabEntry) string {
	best, bestPos := "", -1
	for _, v := range vocab {
		loc := v.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos == -1 || loc[0] < bestPos {
			best, bestPos = v.canonical, loc[0]
		}
	}
	return best
}

// extractPrice applies the first price policy that matches and returns the
// byte spans it consumed so those numbers are not read as product ids.
func extractPrice(text string) (*catalog.PriceRange, [][]int) {
	if m := priceBetween.FindStringSubmatchIndex(text); m != nil {
		lo, hi := parseAmountAt(text, m, 2), parseAmountAt(text, m, 6)
		return ordered(lo, hi), [][]int{m[:2]}
	}
	if m := priceSpan.FindStringSubmatchIndex(text); m != nil {
		lo, hi := parseAmountAt(text, m, 2), parseAmountAt(text, m, 6)
		return ordered(lo, hi), [][]int{m[:2]}
	}
	if m := priceAround.FindStringSubmatchIndex(text); m != nil {
		x := parseAmountAt(text, m, 2)
		return &catalog.PriceRange{Min: round2(x * 0.8), Max: round2(x * 1.2)}, [][]int{m[:2]}
	}
	if m := priceUnder.FindStringSubmatchIndex(text); m != nil {
		return &catalog.PriceRange{Min: 0, Max: parseAmountAt(text, m, 2)}, [][]int{m[:2]}
	}
	if m := priceOver.FindStringSubmatchIndex(text); m != nil {
		return &catalog.PriceRange{Min: parseAmountAt(text, m, 2), Max: 0}, [][]int{m[:2]}
	}
	return nil, nil
}

// parseAmountAt reads the number captured at group index g and the optional
// "k" multiplier captured right after it.
func parseAmountAt(text string, m []int, g int) float64 {
	if m[g] < 0 {
		return 0
	}
	v := parseAmount(text[m[g]:m[g+1]])
	if m[g+2] >= 0 {
		v *= 1000
	}
	return v
}

func parseAmount(s string) float64 {
	if thousandsSep.MatchString(s) {
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func ordered(lo, hi float64) *catalog.PriceRange {
	if hi > 0 && lo > hi {
		lo, hi = hi, lo
	}
	return &catalog.PriceRange{Min: lo, Max: hi}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func extractOrdinal(text string) int {
	best, bestPos := 0, -1
	for _, o := range ordinals {
		loc := o.pattern.FindStringIndex(text)
		if loc != nil && (bestPos == -1 || loc[0] < bestPos) {
			best, bestPos = o.value, loc[0]
		}
	}
	for _, o := range vietnameseOrdinals {
		pos := strings.Index(text, o.phrase)
		if pos >= 0 && (bestPos == -1 || pos < bestPos) {
			best, bestPos = o.value, pos
		}
	}
	return best
}

// extractProductIDs returns explicit ids ("product 12", "#12") first, then
// bare integers in (0, 10000) outside any price expression.
func extractProductIDs(text string, priceSpans [][]int) []int64 {
	var ids []int64
	seen := map[int64]bool{}
	add := func(id int64) {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, m := range explicitID.FindAllStringSubmatchIndex(text, -1) {
		if inSpans(m[0], priceSpans) {
			continue
		}
		if id, err := strconv.ParseInt(text[m[2]:m[3]], 10, 64); err == nil {
			add(id)
		}
	}

	for _, loc := range numberLike.FindAllStringIndex(text, -1) {
		if inSpans(loc[0], priceSpans) {
			continue
		}
		if loc[0] > 0 && isWordByte(text[loc[0]-1]) {
			continue
		}
		id, err := strconv.ParseInt(text[loc[0]:loc[1]], 10, 64)
		if err != nil || id <= 0 || id >= 10000 {
			continue
		}
		add(id)
	}
	return ids
}

func inSpans(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
