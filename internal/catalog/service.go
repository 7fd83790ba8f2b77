package catalog

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search normalizes the criteria and queries the catalog. An empty result is not an error.
func (s *Service) Search(ctx context.Context, c Criteria) ([]Product, error) {
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	c.Style = NormalizeStyle(c.Style)
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultSearchLimit
	case c.Limit > MaxSearchLimit:
		c.Limit = MaxSearchLimit
	}
	if c.PriceRange != nil && c.PriceRange.Max > 0 && c.PriceRange.Min > c.PriceRange.Max {
		c.PriceRange = &PriceRange{Min: c.PriceRange.Max, Max: c.PriceRange.Min}
	}

	products, err := s.repo.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	return products, nil
}

// GetByID returns nil, nil when the product does not exist.
func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, nil
	}
	return s.repo.GetByID(ctx, id)
}
