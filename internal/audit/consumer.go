package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/aiox-platform/shopassist/internal/nats"
)

const consumerName = "dialogue-event-persister"

// Consumer listens on the turn event subject and persists each event to dialogue_events.
type Consumer struct {
	repo        Repository
	consumerMgr *inats.ConsumerManager
}

func NewConsumer(repo Repository, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, consumerName, inats.SubjectTurnEvent)
	if err != nil {
		return err
	}

	slog.Info("dialogue event consumer started", "consumer", consumerName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("dialogue event consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.TurnEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		// A payload that cannot be decoded will never succeed; drop it.
		slog.Error("dialogue event consumer: unmarshaling event", "error", err)
		_ = msg.Term()
		return
	}

	record := convertTurnEvent(event)
	if err := c.repo.Insert(ctx, record); err != nil {
		slog.Error("dialogue event consumer: persisting event", "error", err, "user_id", event.UserID)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("dialogue event consumer: persisted event",
		"user_id", event.UserID,
		"intent", event.Intent,
		"source", event.Source,
	)
}

func convertTurnEvent(event inats.TurnEvent) *DialogueEvent {
	record := &DialogueEvent{
		UserID:     event.UserID,
		SessionID:  event.SessionID,
		Intent:     event.Intent,
		Source:     event.Source,
		Confidence: event.Confidence,
		LatencyMs:  event.LatencyMs,
		CreatedAt:  event.OccurredAt,
	}

	// Event ids are uuids minted by the orchestrator; anything else gets a fresh one.
	if parsed, err := uuid.Parse(event.ID); err == nil {
		record.ID = parsed
	} else {
		record.ID = uuid.New()
	}

	actions := event.Actions
	if actions == nil {
		actions = []string{}
	}
	if data, err := json.Marshal(actions); err == nil {
		record.Actions = data
	}

	return record
}
