package cart

import (
	"context"
	"math"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddItem adds quantity units of the product, incrementing an existing line.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64, quantity int) (*Item, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if productID <= 0 {
		return nil, ErrProductNotFound
	}
	return s.repo.AddOrIncrement(ctx, userID, productID, quantity)
}

// RemoveItem deletes the whole line for the product.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) (*Item, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	return s.repo.Delete(ctx, userID, productID)
}

func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c := &Cart{UserID: userID, Items: items}
	if c.Items == nil {
		c.Items = []Item{}
	}
	for _, it := range items {
		c.ItemCount += it.Quantity
		c.Total += it.LineTotal()
	}
	c.Total = math.Round(c.Total*100) / 100
	return c, nil
}
