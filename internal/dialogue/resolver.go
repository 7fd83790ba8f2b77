package dialogue

import (
	"strings"

	"github.com/aiox-platform/shopassist/internal/catalog"
)

type RefKind int

const (
	RefUnresolved RefKind = iota
	RefProductID
	RefOrdinal
	RefAttribute
	RefAnaphora
)

func (k RefKind) String() string {
	switch k {
	case RefProductID:
		return "product_id"
	case RefOrdinal:
		return "ordinal"
	case RefAttribute:
		return "attribute"
	case RefAnaphora:
		return "anaphora"
	default:
		return "unresolved"
	}
}

// Reference is the product a message points at.
type Reference struct {
	Kind      RefKind
	ProductID int64
	Ordinal   int
}

func (r Reference) Resolved() bool {
	return r.Kind != RefUnresolved
}

// Resolver maps mentions such as "the second one" or "the black one" onto
// product ids. It never guesses: anything ambiguous is unresolved.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve applies, in order: explicit product id, ordinal into candidates,
// a unique attribute match among candidates, then anaphora to lastReferenced.
func (r *Resolver) Resolve(e Entities, candidates []catalog.Product, lastReferenced int64) Reference {
	if len(e.ProductIDs) > 0 {
		return Reference{Kind: RefProductID, ProductID: e.ProductIDs[0]}
	}

	if e.Ordinal != 0 {
		idx := e.Ordinal
		if idx == OrdinalLast {
			idx = len(candidates)
		}
		if idx >= 1 && idx <= len(candidates) {
			return Reference{Kind: RefOrdinal, ProductID: candidates[idx-1].ID, Ordinal: idx}
		}
		return Reference{Kind: RefUnresolved, Ordinal: e.Ordinal}
	}

	if e.Color != "" || e.Style != "" || e.Category != "" {
		var match *catalog.Product
		count := 0
		for i := range candidates {
			if matchesAttributes(candidates[i], e) {
				match = &candidates[i]
				count++
			}
		}
		if count == 1 {
			return Reference{Kind: RefAttribute, ProductID: match.ID}
		}
		if count > 1 {
			return Reference{Kind: RefUnresolved}
		}
	}

	if e.HasAnaphora && lastReferenced > 0 {
		return Reference{Kind: RefAnaphora, ProductID: lastReferenced}
	}
	return Reference{Kind: RefUnresolved}
}

func matchesAttributes(p catalog.Product, e Entities) bool {
	if e.Color != "" && !strings.EqualFold(p.Color, e.Color) && !containsFold(p.Name, e.Color) {
		return false
	}
	if e.Style != "" && !strings.EqualFold(p.Style, e.Style) {
		return false
	}
	if e.Category != "" && !strings.EqualFold(p.Category, e.Category) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
