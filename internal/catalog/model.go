package catalog

import (
	"strings"
	"time"
	"unicode"
)

// Product is a catalog row as shown to shoppers and kept in the dialogue
// context for reference resolution.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Color       string    `json:"color,omitempty"`
	Style       string    `json:"style,omitempty"`
	CategoryID  int       `json:"category_id,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// PriceRange bounds a search. A zero Max means no upper bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r PriceRange) Contains(price float64) bool {
	if price < r.Min {
		return false
	}
	return r.Max <= 0 || price <= r.Max
}

// Criteria is the attribute filter used by the assistant and the search endpoint.
type Criteria struct {
	Category   string
	Style      string
	Color      string
	PriceRange *PriceRange
	Limit      int
}

// NormalizeStyle folds case and treats dashes, underscores and whitespace
// runs as one space, so "Smart-Casual" and "smart casual" compare equal.
func NormalizeStyle(style string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(style), func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	}), " ")
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Canonical category names and their ids in the categories table.
var categoryIDs = map[string]int{
	"shirt":       1,
	"pants":       2,
	"dress":       3,
	"jacket":      4,
	"shoes":       5,
	"accessories": 6,
}

// CategoryID maps a canonical category name to its id.
func CategoryID(name string) (int, bool) {
	id, ok := categoryIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Categories lists the canonical category names in id order.
func Categories() []string {
	return []string{"shirt", "pants", "dress", "jacket", "shoes", "accessories"}
}

// SearchRequest is the body of POST /products/search.
type SearchRequest struct {
	Category string  `json:"category" validate:"omitempty,oneof=shirt pants dress jacket shoes accessories"`
	Style    string  `json:"style" validate:"omitempty,max=64"`
	Color    string  `json:"color" validate:"omitempty,max=64"`
	MinPrice float64 `json:"min_price" validate:"gte=0"`
	MaxPrice float64 `json:"max_price" validate:"gte=0"`
	Limit    int     `json:"limit" validate:"gte=0,lte=50"`
}

func (r SearchRequest) Criteria() Criteria {
	c := Criteria{
		Category: r.Category,
		Style:    r.Style,
		Color:    r.Color,
		Limit:    r.Limit,
	}
	if r.MinPrice > 0 || r.MaxPrice > 0 {
		c.PriceRange = &PriceRange{Min: r.MinPrice, Max: r.MaxPrice}
	}
	return c
}
