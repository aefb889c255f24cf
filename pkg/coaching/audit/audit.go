// Package audit carries the trail of executed coaching actions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Entry records one executed action.
type Entry struct {
	Id         uuid.UUID              `json:"id"`
	UserId     uuid.UUID              `json:"user_id"`
	ActionId   string                 `json:"action_id"`
	Params     map[string]interface{} `json:"params,omitempty"`
	Summary    string                 `json:"summary"`
	TriggerRef *uuid.UUID             `json:"trigger_ref,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Event wraps the entry for the NATS bus.
func (e Entry) Event() events.Event {
	data := map[string]interface{}{
		"id":          e.Id.String(),
		"user_id":     e.UserId.String(),
		"action_id":   e.ActionId,
		"summary":     e.Summary,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.Params != nil {
		data["params"] = e.Params
	}
	if e.TriggerRef != nil {
		data["trigger_ref"] = e.TriggerRef.String()
	}
	return events.New(constant.AuditTopicCoachingAction, data, e.OccurredAt)
}

// EntryFromEvent rebuilds an entry from a bus event produced by Event.
func EntryFromEvent(event events.Event) (Entry, error) {
	data := event.Payload()
	entry := Entry{OccurredAt: event.Timestamp()}

	var err error
	if entry.Id, err = uuid.Parse(fmt.Sprint(data["id"])); err != nil {
		return Entry{}, fmt.Errorf("audit event id: %w", err)
	}
	if entry.UserId, err = uuid.Parse(fmt.Sprint(data["user_id"])); err != nil {
		return Entry{}, fmt.Errorf("audit event user_id: %w", err)
	}
	entry.ActionId, _ = data["action_id"].(string)
	entry.Summary, _ = data["summary"].(string)
	if params, ok := data["params"].(map[string]interface{}); ok {
		entry.Params = params
	}
	if raw, ok := data["trigger_ref"].(string); ok {
		if ref, err := uuid.Parse(raw); err == nil {
			entry.TriggerRef = &ref
		}
	}
	return entry, nil
}

// Sink receives entries. Callers treat errors as non-fatal.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entry Entry) error

func (f SinkFunc) Record(ctx context.Context, entry Entry) error {
	return f(ctx, entry)
}

// Discard drops every entry.
var Discard Sink = SinkFunc(func(context.Context, Entry) error { return nil })

// WatermillSink publishes entries as JSON messages on a watermill topic.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewWatermillSink(publisher message.Publisher, topic string, logger logger.ILogger) *WatermillSink {
	return &WatermillSink{publisher: publisher, topic: topic, logger: logger}
}

func (s *WatermillSink) Record(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("publish audit entry: %w", err)
	}
	s.logger.Debug("AUDIT", "Entry published", map[string]interface{}{
		"action_id": entry.ActionId,
		"user_id":   entry.UserId.String(),
	})
	return nil
}

// Recorder keeps entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}
