package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, event *DialogueEvent) error
	ListByUser(ctx context.Context, userID string, params ListParams) ([]DialogueEvent, int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Insert persists one event. Redelivered events keep their id, so a
// duplicate insert is a no-op.
func (r *repository) Insert(ctx context.Context, event *DialogueEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	actions := event.Actions
	if len(actions) == 0 {
		actions = json.RawMessage(`[]`)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO dialogue_events (id, user_id, session_id, intent, source, confidence, actions, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		event.ID, event.UserID, event.SessionID, event.Intent, event.Source,
		event.Confidence, actions, event.LatencyMs, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting dialogue event: %w", err)
	}
	return nil
}

// ListByUser returns a page of a user's events, newest first, plus the total count.
func (r *repository) ListByUser(ctx context.Context, userID string, params ListParams) ([]DialogueEvent, int64, error) {
	params.normalize()

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argIdx := 2

	if params.Intent != "" {
		conditions = append(conditions, fmt.Sprintf("intent = $%d", argIdx))
		args = append(args, params.Intent)
		argIdx++
	}

	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}

	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM dialogue_events WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting dialogue events: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(
		`SELECT id, user_id, session_id, intent, source, confidence, actions, latency_ms, created_at
		 FROM dialogue_events WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying dialogue events: %w", err)
	}
	defer rows.Close()

	events := []DialogueEvent{}
	for rows.Next() {
		var e DialogueEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.Intent, &e.Source,
			&e.Confidence, &e.Actions, &e.LatencyMs, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning dialogue event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating dialogue events: %w", err)
	}

	return events, total, nil
}
