package quota

import (
	"context"
	"log/slog"
)

// Budget caps completion provider calls per shopper per minute.
// When the budget is spent the assistant answers from its rules instead.
type Budget struct {
	window       *Window
	maxPerMinute int
}

// NewBudget returns a budget; maxPerMinute <= 0 disables the cap.
func NewBudget(window *Window, maxPerMinute int) *Budget {
	return &Budget{window: window, maxPerMinute: maxPerMinute}
}

// Allow consumes one completion from the user's budget. Redis errors fail open.
func (b *Budget) Allow(ctx context.Context, userID string) bool {
	if b == nil || b.maxPerMinute <= 0 {
		return true
	}
	allowed, err := b.window.CheckAndIncrement(ctx, userID, b.maxPerMinute)
	if err != nil {
		slog.Warn("quota: budget check failed, allowing completion", "error", err, "user_id", userID)
		return true
	}
	if !allowed {
		slog.Debug("quota: completion budget exhausted", "user_id", userID, "limit", b.maxPerMinute)
	}
	return allowed
}
