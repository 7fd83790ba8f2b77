package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/shopassist/internal/api"
	"github.com/aiox-platform/shopassist/internal/audit"
	"github.com/aiox-platform/shopassist/internal/auth"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/dialogue"
)

// Assistant is the dialogue surface the handler drives.
type Assistant interface {
	HandleTurn(ctx context.Context, userID, message string) (*dialogue.TurnResult, error)
	ResetConversation(ctx context.Context, userID string) (*dialogue.TurnResult, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]conversation.Record, error)
}

// EventLister serves the per-user turn audit log.
type EventLister interface {
	ListByUser(ctx context.Context, userID string, params audit.ListParams) ([]audit.DialogueEvent, int64, error)
}

type Handler struct {
	assistant Assistant
	events    EventLister
	validate  *validator.Validate
}

// NewHandler creates a chat Handler. events may be nil when NATS is disabled.
func NewHandler(assistant Assistant, events EventLister) *Handler {
	return &Handler{
		assistant: assistant,
		events:    events,
		validate:  validator.New(),
	}
}

type MessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type QuickResponse struct {
	Response string          `json:"response"`
	Intent   dialogue.Intent `json:"intent"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	result, ok := h.turn(w, r)
	if !ok {
		return
	}
	api.JSON(w, http.StatusOK, result)
}

// Quick runs a full turn but returns only the reply text and intent.
func (h *Handler) Quick(w http.ResponseWriter, r *http.Request) {
	result, ok := h.turn(w, r)
	if !ok {
		return
	}
	api.JSON(w, http.StatusOK, QuickResponse{
		Response: result.Response,
		Intent:   result.Intent,
	})
}

func (h *Handler) turn(w http.ResponseWriter, r *http.Request) (*dialogue.TurnResult, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return nil, false
	}

	var req MessageRequest
	if err := api.DecodeAndValidate(r, h.validate, &req); err != nil {
		api.HandleError(w, err)
		return nil, false
	}

	result, err := h.assistant.HandleTurn(r.Context(), userID, req.Message)
	if err != nil {
		handleDialogueError(w, err, "handling turn", userID)
		return nil, false
	}
	return result, true
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	result, err := h.assistant.ResetConversation(r.Context(), userID)
	if err != nil {
		handleDialogueError(w, err, "resetting conversation", userID)
		return
	}
	api.JSON(w, http.StatusOK, result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	limit := dialogue.DefaultHistoryTurns
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			api.HandleError(w, api.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.assistant.GetHistory(r.Context(), userID, limit)
	if err != nil {
		handleDialogueError(w, err, "loading history", userID)
		return
	}
	api.JSON(w, http.StatusOK, records)
}

// Events lists the caller's turn audit events, newest first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	if h.events == nil {
		api.HandleError(w, api.NewNotFoundError("turn events are not enabled"))
		return
	}

	params := parseEventParams(r)
	events, total, err := h.events.ListByUser(r.Context(), userID, params)
	if err != nil {
		slog.Error("listing dialogue events", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, events, total, params.Page, params.PageSize)
}

func parseEventParams(r *http.Request) audit.ListParams {
	params := audit.DefaultListParams()
	q := r.URL.Query()

	if intent := q.Get("intent"); intent != "" {
		params.Intent = intent
	}
	if p := q.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := q.Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= 100 {
			params.PageSize = pageSize
		}
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	return params
}

func handleDialogueError(w http.ResponseWriter, err error, op, userID string) {
	switch {
	case errors.Is(err, dialogue.ErrMissingUser):
		api.HandleError(w, api.ErrUnauthorized)
	case errors.Is(err, dialogue.ErrEmptyMessage), errors.Is(err, dialogue.ErrMessageTooLong):
		api.HandleError(w, api.NewValidationError(err.Error()))
	default:
		slog.Error(op, "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
	}
}
