package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DialogueEvent matches the dialogue_events table schema.
type DialogueEvent struct {
	ID         uuid.UUID       `json:"id"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id"`
	Intent     string          `json:"intent"`
	Source     string          `json:"source"`
	Confidence float64         `json:"confidence"`
	Actions    json.RawMessage `json:"actions"`
	LatencyMs  int64           `json:"latency_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ListParams holds pagination and filtering parameters for event queries.
type ListParams struct {
	Intent   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// DefaultListParams returns sensible defaults.
func DefaultListParams() ListParams {
	return ListParams{
		Page:     1,
		PageSize: 20,
	}
}

func (p *ListParams) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}
