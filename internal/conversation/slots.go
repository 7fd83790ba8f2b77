package conversation

import "github.com/aiox-platform/shopassist/internal/catalog"

// SlotPhase is the slot-filling progress of a product search.
type SlotPhase string

const (
	SlotEmpty    SlotPhase = "empty"
	SlotPartial  SlotPhase = "partial"
	SlotComplete SlotPhase = "complete"
)

// Missing slot names, in the order the assistant asks for them.
const (
	SlotCategory     = "category"
	SlotStyleOrColor = "style_or_color"
)

// SlotState holds the search criteria gathered so far. Empty strings are unset.
type SlotState struct {
	Category   string              `json:"category,omitempty"`
	Style      string              `json:"style,omitempty"`
	Color      string              `json:"color,omitempty"`
	PriceRange *catalog.PriceRange `json:"price_range,omitempty"`
}

// IsComplete reports whether a search can run: a category plus a style or a color.
func (s SlotState) IsComplete() bool {
	return s.Category != "" && (s.Style != "" || s.Color != "")
}

func (s SlotState) IsEmpty() bool {
	return s.Category == "" && s.Style == "" && s.Color == "" && s.PriceRange == nil
}

func (s SlotState) Phase() SlotPhase {
	switch {
	case s.IsComplete():
		return SlotComplete
	case s.IsEmpty():
		return SlotEmpty
	default:
		return SlotPartial
	}
}

// Merge overwrites the fields set in other. It never unsets a field.
func (s SlotState) Merge(other SlotState) SlotState {
	if other.Category != "" {
		s.Category = other.Category
	}
	if other.Style != "" {
		s.Style = other.Style
	}
	if other.Color != "" {
		s.Color = other.Color
	}
	if other.PriceRange != nil {
		pr := *other.PriceRange
		s.PriceRange = &pr
	}
	return s
}

func (s SlotState) Reset() SlotState {
	return SlotState{}
}

func (s SlotState) Missing() []string {
	var missing []string
	if s.Category == "" {
		missing = append(missing, SlotCategory)
	}
	if s.Style == "" && s.Color == "" {
		missing = append(missing, SlotStyleOrColor)
	}
	return missing
}

// Criteria converts a complete slot state into a catalog query.
func (s SlotState) Criteria(limit int) catalog.Criteria {
	c := catalog.Criteria{
		Category: s.Category,
		Style:    s.Style,
		Color:    s.Color,
		Limit:    limit,
	}
	if s.PriceRange != nil {
		pr := *s.PriceRange
		c.PriceRange = &pr
	}
	return c
}
