package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteHistory struct {
	db *sql.DB
}

// OpenSQLite opens a history database file in WAL mode. ":memory:" is accepted.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY and keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewSQLiteHistory creates the conversations table if needed.
func NewSQLiteHistory(db *sql.DB) (HistoryRepository, error) {
	h := &sqliteHistory{db: db}
	if err := h.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return h, nil
}

func (h *sqliteHistory) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		role INTEGER NOT NULL,
		message TEXT NOT NULL,
		intent TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user_created ON conversations(user_id, created_at DESC);
	`
	if _, err := h.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (h *sqliteHistory) Append(ctx context.Context, rec Record) error {
	metadata := rec.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, role, message, intent, session_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, int16(rec.Role), rec.Message, rec.Intent, rec.SessionID, string(metadata), createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation row: %w", err)
	}
	return nil
}

func (h *sqliteHistory) LoadRecent(ctx context.Context, userID string, limit int) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, user_id, role, message, intent, session_id, metadata, created_at
		 FROM conversations
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
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
		var metadata string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &role, &rec.Message, &rec.Intent,
			&rec.SessionID, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		rec.Role = Role(role)
		rec.Metadata = json.RawMessage(metadata)
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return chronological(records), nil
}
