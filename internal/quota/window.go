package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "quota:completions:"
	windowDuration = 60 * time.Second
	keyTTL         = 90 * time.Second
)

// Window is a Redis sorted-set sliding window counting events per user per minute.
type Window struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewWindow(rdb redis.Cmdable) *Window {
	return &Window{rdb: rdb, now: time.Now}
}

// CheckAndIncrement records one event and returns true when the user is under max.
// Denied events are not recorded.
func (w *Window) CheckAndIncrement(ctx context.Context, userID string, max int) (bool, error) {
	key := keyPrefix + userID
	now := w.now()
	windowStart := now.Add(-windowDuration).UnixMilli()

	pipe := w.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("quota window (clean+count): %w", err)
	}

	count := countCmd.Val()
	if count >= int64(max) {
		return false, nil
	}

	pipe = w.rdb.Pipeline()
	member := fmt.Sprintf("%d:%d", now.UnixNano(), count)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("quota window (add): %w", err)
	}
	return true, nil
}

// Usage returns the number of events in the current window.
func (w *Window) Usage(ctx context.Context, userID string) (int, error) {
	now := w.now()
	count, err := w.rdb.ZCount(ctx, keyPrefix+userID,
		strconv.FormatInt(now.Add(-windowDuration).UnixMilli(), 10),
		strconv.FormatInt(now.UnixMilli(), 10),
	).Result()
	if err != nil {
		return 0, fmt.Errorf("getting window usage: %w", err)
	}
	return int(count), nil
}
