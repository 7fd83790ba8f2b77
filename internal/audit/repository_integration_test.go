//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/shopassist/internal/database/dbtest"
)

func TestRepository_InsertAndList(t *testing.T) {
	pool := dbtest.NewPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	intents := []string{"search_product", "add_to_cart", "search_product"}
	for i, intent := range intents {
		require.NoError(t, repo.Insert(ctx, &DialogueEvent{
			UserID:    "u1",
			SessionID: "ab12cd34",
			Intent:    intent,
			Source:    "rules",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	dup := &DialogueEvent{ID: uuid.New(), UserID: "u2", Intent: "view_cart", Source: "llm", CreatedAt: base}
	require.NoError(t, repo.Insert(ctx, dup))
	require.NoError(t, repo.Insert(ctx, dup), "redelivered events are ignored")

	events, total, err := repo.ListByUser(ctx, "u1", ListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, events, 2)
	assert.Equal(t, "search_product", events[0].Intent)
	assert.Equal(t, "add_to_cart", events[1].Intent)
	assert.JSONEq(t, `[]`, string(events[0].Actions))

	filtered, total, err := repo.ListByUser(ctx, "u1", ListParams{Intent: "search_product"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, filtered, 2)

	others, total, err := repo.ListByUser(ctx, "u2", DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, others, 1)
}
