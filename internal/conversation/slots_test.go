package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiox-platform/shopassist/internal/catalog"
)

func TestSlotState_IsComplete(t *testing.T) {
	tests := []struct {
		category, style, color string
		want                   bool
	}{
		{"", "", "", false},
		{"", "", "black", false},
		{"", "casual", "", false},
		{"", "casual", "black", false},
		{"shirt", "", "", false},
		{"shirt", "", "black", true},
		{"shirt", "casual", "", true},
		{"shirt", "casual", "black", true},
	}
	for _, tt := range tests {
		s := SlotState{Category: tt.category, Style: tt.style, Color: tt.color}
		assert.Equal(t, tt.want, s.IsComplete(), "%+v", s)
	}
}

func TestSlotState_Phase(t *testing.T) {
	assert.Equal(t, SlotEmpty, SlotState{}.Phase())
	assert.Equal(t, SlotPartial, SlotState{Category: "shirt"}.Phase())
	assert.Equal(t, SlotPartial, SlotState{PriceRange: &catalog.PriceRange{Max: 100}}.Phase())
	assert.Equal(t, SlotComplete, SlotState{Category: "shirt", Color: "red"}.Phase())
}

func TestSlotState_MergeNeverUnsets(t *testing.T) {
	s := SlotState{Category: "shirt", Style: "casual"}

	s = s.Merge(SlotState{Color: "black"})
	assert.Equal(t, SlotState{Category: "shirt", Style: "casual", Color: "black"}, s)

	s = s.Merge(SlotState{})
	assert.Equal(t, "shirt", s.Category)
	assert.Equal(t, "casual", s.Style)
	assert.Equal(t, "black", s.Color)

	s = s.Merge(SlotState{Category: "pants", PriceRange: &catalog.PriceRange{Min: 10, Max: 20}})
	assert.Equal(t, "pants", s.Category)
	assert.Equal(t, "casual", s.Style)
	if assert.NotNil(t, s.PriceRange) {
		assert.Equal(t, 20.0, s.PriceRange.Max)
	}
}

func TestSlotState_Missing(t *testing.T) {
	assert.Equal(t, []string{SlotCategory, SlotStyleOrColor}, SlotState{}.Missing())
	assert.Equal(t, []string{SlotStyleOrColor}, SlotState{Category: "shoes"}.Missing())
	assert.Equal(t, []string{SlotCategory}, SlotState{Color: "red"}.Missing())
	assert.Empty(t, SlotState{Category: "shoes", Style: "sport"}.Missing())
}

func TestSlotState_Criteria(t *testing.T) {
	s := SlotState{Category: "shirt", Color: "black", PriceRange: &catalog.PriceRange{Min: 100, Max: 500}}
	c := s.Criteria(10)
	assert.Equal(t, "shirt", c.Category)
	assert.Equal(t, "black", c.Color)
	assert.Equal(t, 10, c.Limit)
	c.PriceRange.Max = 1
	assert.Equal(t, 500.0, s.PriceRange.Max)
}
