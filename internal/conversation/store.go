package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the live Context in Redis, one JSON document per shopper.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	window int
}

// NewStore creates a context store. Messages are trimmed to window on save.
func NewStore(client redis.Cmdable, ttl time.Duration, window int) *Store {
	return &Store{client: client, ttl: ttl, window: window}
}

func contextKey(userID string) string {
	return fmt.Sprintf("convctx:%s", userID)
}

// Load returns the stored context, or a fresh one when none exists.
func (s *Store) Load(ctx context.Context, userID string) (*Context, error) {
	key := contextKey(userID)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewContext(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding context %s: %w", key, err)
	}
	if c.UserID == "" {
		c.UserID = userID
	}
	if c.SessionID == "" {
		c.SessionID = NewSessionID()
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return &c, nil
}

// Save writes the context and refreshes its idle TTL.
func (s *Store) Save(ctx context.Context, c *Context) error {
	if c.UserID == "" {
		return errors.New("context has no user id")
	}
	stored := *c
	stored.Messages = c.Recent(s.window)

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshaling context: %w", err)
	}

	key := contextKey(c.UserID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete drops the stored context.
func (s *Store) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, contextKey(userID)).Err()
}
