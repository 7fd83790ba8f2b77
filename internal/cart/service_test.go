package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository with the same stock rules as Postgres.
type memRepo struct {
	stock    map[int64]int
	names    map[int64]string
	prices   map[int64]float64
	lines    map[string]map[int64]int
	order    map[string][]int64
	nextLine int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		stock:  map[int64]int{101: 5, 102: 1, 103: 0},
		names:  map[int64]string{101: "Black Oxford Shirt", 102: "Casual Tee", 103: "Sold Out Jacket"},
		prices: map[int64]float64{101: 120000, 102: 99000.5, 103: 450000},
		lines:  map[string]map[int64]int{},
		order:  map[string][]int64{},
	}
}

func (m *memRepo) AddOrIncrement(_ context.Context, userID string, productID int64, qty int) (*Item, error) {
	stock, ok := m.stock[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	if m.lines[userID] == nil {
		m.lines[userID] = map[int64]int{}
	}
	existing := m.lines[userID][productID]
	if existing+qty > stock {
		return nil, ErrOutOfStock
	}
	if existing == 0 {
		m.order[userID] = append(m.order[userID], productID)
	}
	m.nextLine++
	m.lines[userID][productID] = existing + qty
	return &Item{ID: m.nextLine, ProductID: productID, Name: m.names[productID], Price: m.prices[productID], Quantity: existing + qty}, nil
}

func (m *memRepo) Delete(_ context.Context, userID string, productID int64) (*Item, error) {
	qty, ok := m.lines[userID][productID]
	if !ok {
		return nil, ErrItemNotInCart
	}
	delete(m.lines[userID], productID)
	ids := m.order[userID][:0]
	for _, id := range m.order[userID] {
		if id != productID {
			ids = append(ids, id)
		}
	}
	m.order[userID] = ids
	return &Item{ProductID: productID, Name: m.names[productID], Price: m.prices[productID], Quantity: qty}, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]Item, error) {
	var items []Item
	for _, id := range m.order[userID] {
		items = append(items, Item{ProductID: id, Name: m.names[id], Price: m.prices[id], Quantity: m.lines[userID][id]})
	}
	return items, nil
}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("adds then increments", func(t *testing.T) {
		svc := NewService(newMemRepo())
		item, err := svc.AddItem(ctx, "u1", 101, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)

		item, err = svc.AddItem(ctx, "u1", 101, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("out of stock", func(t *testing.T) {
		svc := NewService(newMemRepo())
		_, err := svc.AddItem(ctx, "u1", 103, 1)
		assert.ErrorIs(t, err, ErrOutOfStock)
	})

	t.Run("exceeding remaining stock", func(t *testing.T) {
		svc := NewService(newMemRepo())
		_, err := svc.AddItem(ctx, "u1", 102, 1)
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "u1", 102, 1)
		assert.ErrorIs(t, err, ErrOutOfStock)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc := NewService(newMemRepo())
		_, err := svc.AddItem(ctx, "u1", 999, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("input validation", func(t *testing.T) {
		svc := NewService(newMemRepo())
		_, err := svc.AddItem(ctx, "", 101, 1)
		assert.ErrorIs(t, err, ErrMissingUser)
		_, err = svc.AddItem(ctx, "u1", 101, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = svc.AddItem(ctx, "u1", -4, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	_, err := svc.RemoveItem(ctx, "u1", 101)
	assert.ErrorIs(t, err, ErrItemNotInCart)

	_, err = svc.AddItem(ctx, "u1", 101, 2)
	require.NoError(t, err)

	item, err := svc.RemoveItem(ctx, "u1", 101)
	require.NoError(t, err)
	assert.Equal(t, "Black Oxford Shirt", item.Name)

	c, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestService_GetCartTotals(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	_, err := svc.AddItem(ctx, "u1", 101, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", 102, 1)
	require.NoError(t, err)

	c, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.ItemCount)
	assert.Equal(t, 339000.5, c.Total)

	other, err := svc.GetCart(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Empty())
	assert.NotNil(t, other.Items)
}
