package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiox-platform/shopassist/internal/catalog"
)

var shownShirts = []catalog.Product{
	{ID: 101, Name: "Black Casual Shirt", Color: "black", Style: "casual", Category: "shirt", Stock: 5},
	{ID: 102, Name: "White Formal Shirt", Color: "white", Style: "formal", Category: "shirt", Stock: 3},
}

func TestResolver_Precedence(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name     string
		entities Entities
		shown    []catalog.Product
		last     int64
		kind     RefKind
		id       int64
	}{
		{"explicit id beats ordinal", Entities{ProductIDs: []int64{205}, Ordinal: 1}, shownShirts, 0, RefProductID, 205},
		{"explicit id without list", Entities{ProductIDs: []int64{7}}, nil, 0, RefProductID, 7},
		{"first", Entities{Ordinal: 1}, shownShirts, 0, RefOrdinal, 101},
		{"second", Entities{Ordinal: 2}, shownShirts, 0, RefOrdinal, 102},
		{"last", Entities{Ordinal: OrdinalLast}, shownShirts, 0, RefOrdinal, 102},
		{"ordinal out of range", Entities{Ordinal: 3}, shownShirts, 0, RefUnresolved, 0},
		{"ordinal with empty list", Entities{Ordinal: 1}, nil, 0, RefUnresolved, 0},
		{"ordinal does not fall back to anaphora", Entities{Ordinal: 4, HasAnaphora: true}, shownShirts, 101, RefUnresolved, 0},
		{"unique color", Entities{Color: "white"}, shownShirts, 0, RefAttribute, 102},
		{"unique style", Entities{Style: "casual"}, shownShirts, 0, RefAttribute, 101},
		{"ambiguous category", Entities{Category: "shirt"}, shownShirts, 0, RefUnresolved, 0},
		{"anaphora", Entities{HasAnaphora: true}, shownShirts, 102, RefAnaphora, 102},
		{"no match falls to anaphora", Entities{Color: "red", HasAnaphora: true}, shownShirts, 101, RefAnaphora, 101},
		{"anaphora without history", Entities{HasAnaphora: true}, shownShirts, 0, RefUnresolved, 0},
		{"nothing", Entities{}, shownShirts, 101, RefUnresolved, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := r.Resolve(tt.entities, tt.shown, tt.last)
			assert.Equal(t, tt.kind, ref.Kind, ref.Kind.String())
			assert.Equal(t, tt.id, ref.ProductID)
			assert.Equal(t, tt.kind != RefUnresolved, ref.Resolved())
		})
	}
}
