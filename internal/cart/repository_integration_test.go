//go:build integration

package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/shopassist/internal/database/dbtest"
)

func TestPostgresRepository_CartLifecycle(t *testing.T) {
	pool := dbtest.NewPostgres(t)
	svc := NewService(NewRepository(pool))
	ctx := context.Background()

	shirt := dbtest.SeedProduct(t, pool, "White Linen Shirt", "shirt", "white", "casual", 30, 2)
	jacket := dbtest.SeedProduct(t, pool, "Denim Jacket", "jacket", "blue", "casual", 80.5, 1)
	soldOut := dbtest.SeedProduct(t, pool, "Black Tee", "shirt", "black", "casual", 15, 0)

	item, err := svc.AddItem(ctx, "u1", shirt, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = svc.AddItem(ctx, "u1", shirt, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity, "adding again increments the line")

	_, err = svc.AddItem(ctx, "u1", shirt, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddItem(ctx, "u1", soldOut, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddItem(ctx, "u1", 999999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(ctx, "u1", jacket, 1)
	require.NoError(t, err)

	c, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.ItemCount)
	assert.InDelta(t, 140.5, c.Total, 0.001)

	other, err := svc.GetCart(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Empty())

	removed, err := svc.RemoveItem(ctx, "u1", shirt)
	require.NoError(t, err)
	assert.Equal(t, "White Linen Shirt", removed.Name)

	_, err = svc.RemoveItem(ctx, "u1", shirt)
	assert.ErrorIs(t, err, ErrItemNotInCart)
}
