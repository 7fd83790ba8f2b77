package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/shopassist/internal/catalog"
)

func setupStore(t *testing.T, window int) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour, window), mr
}

func TestStore_LoadMissingReturnsFreshContext(t *testing.T) {
	store, _ := setupStore(t, 10)

	c, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Len(t, c.SessionID, 8)
	assert.Empty(t, c.Messages)
	assert.Equal(t, SlotEmpty, c.Slots.Phase())
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, _ := setupStore(t, 10)
	ctx := context.Background()

	c := NewContext("u1")
	c.Append(RoleUser, "black shirt", time.Now())
	c.CurrentIntent = "search_products"
	c.Slots = SlotState{Category: "shirt", Color: "black"}
	c.LastProductsShown = []catalog.Product{{ID: 101, Name: "Black Oxford Shirt", Price: 120000}}
	c.LastReferencedProductID = 101
	require.NoError(t, store.Save(ctx, c))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.SessionID, got.SessionID)
	assert.Equal(t, "search_products", got.CurrentIntent)
	assert.Equal(t, "shirt", got.Slots.Category)
	require.Len(t, got.LastProductsShown, 1)
	assert.Equal(t, int64(101), got.LastProductsShown[0].ID)
	assert.Equal(t, int64(101), got.LastReferencedProductID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
}

func TestStore_TrimsMessagesToWindow(t *testing.T) {
	store, _ := setupStore(t, 3)
	ctx := context.Background()

	c := NewContext("u1")
	for i := 0; i < 5; i++ {
		c.Append(RoleUser, fmt.Sprintf("m%d", i), time.Now())
	}
	require.NoError(t, store.Save(ctx, c))
	assert.Len(t, c.Messages, 5)

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "m2", got.Messages[0].Text)
	assert.Equal(t, "m4", got.Messages[2].Text)
}

func TestStore_TTL(t *testing.T) {
	store, mr := setupStore(t, 10)
	ctx := context.Background()

	c := NewContext("u1")
	c.Slots.Category = "dress"
	require.NoError(t, store.Save(ctx, c))

	mr.FastForward(61 * time.Minute)

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, c.SessionID, got.SessionID)
	assert.Empty(t, got.Slots.Category)
}

func TestStore_IsolatedByUser(t *testing.T) {
	store, _ := setupStore(t, 10)
	ctx := context.Background()

	a := NewContext("alice")
	a.Slots.Category = "shoes"
	require.NoError(t, store.Save(ctx, a))

	b, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, b.Slots.Category)
}

func TestStore_MalformedDocument(t *testing.T) {
	store, mr := setupStore(t, 10)
	require.NoError(t, mr.Set("convctx:u1", "{not json"))

	_, err := store.Load(context.Background(), "u1")
	assert.Error(t, err)
}

func TestStore_Unavailable(t *testing.T) {
	store, mr := setupStore(t, 10)
	mr.Close()

	_, err := store.Load(context.Background(), "u1")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), NewContext("u1")))
}

func TestContext_ResetKeepsUser(t *testing.T) {
	c := NewContext("u1")
	old := c.SessionID
	c.Slots.Category = "shirt"
	c.LastReferencedProductID = 7
	c.Append(RoleUser, "hi", time.Now())

	c.Reset()
	assert.Equal(t, "u1", c.UserID)
	assert.Empty(t, c.Messages)
	assert.Zero(t, c.LastReferencedProductID)
	assert.True(t, c.Slots.IsEmpty())
	assert.Len(t, c.SessionID, 8)
	assert.NotEqual(t, old, c.SessionID)
}

func TestRole_Text(t *testing.T) {
	var r Role
	require.NoError(t, r.UnmarshalText([]byte("assistant")))
	assert.Equal(t, RoleAssistant, r)
	b, err := RoleUser.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "user", string(b))
	assert.Error(t, r.UnmarshalText([]byte("system")))
}
