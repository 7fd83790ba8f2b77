package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository persists the full conversation log.
type HistoryRepository interface {
	Append(ctx context.Context, rec Record) error
	LoadRecent(ctx context.Context, userID string, limit int) ([]Record, error)
}

type postgresHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresHistory(pool *pgxpool.Pool) HistoryRepository {
	return &postgresHistory{pool: pool}
}

func (r *postgresHistory) Append(ctx context.Context, rec Record) error {
	metadata := rec.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (user_id, role, message, intent, session_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.UserID, int16(rec.Role), rec.Message, rec.Intent, rec.SessionID, metadata,
	)
	if err != nil {
		return fmt.Errorf("inserting conversation row: %w", err)
	}
	return nil
}

// LoadRecent returns the newest limit rows in chronological order.
func (r *postgresHistory) LoadRecent(ctx context.Context, userID string, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, role, message, intent, session_id, metadata, created_at
		 FROM conversations
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conversation history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var role int16
		if err := rows.Scan(&rec.ID, &rec.UserID, &role, &rec.Message, &rec.Intent,
			&rec.SessionID, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		rec.Role = Role(role)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return chronological(records), nil
}

// chronological reverses newest-first rows in place.
func chronological(records []Record) []Record {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records
}
