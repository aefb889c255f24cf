package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/repository/memory"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestConsumerPersistsAuditEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nop := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	store := memory.NewStore()
	forwarder := &recordingPublisher{}
	consumer := NewConsumerService(pubSub, "coaching-test", memory.NewRepositoryFactory(store), forwarder, nop)
	require.NoError(t, consumer.Consume(ctx))

	trigger := uuid.New()
	entry := audit.Entry{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		ActionId:   "create_record",
		Params:     map[string]interface{}{"label": "Runner"},
		Summary:    `created identity "Runner" (health)`,
		TriggerRef: &trigger,
		OccurredAt: time.Now().UTC(),
	}
	sink := audit.NewWatermillSink(pubSub, "coaching-test", nop)
	require.NoError(t, sink.Record(ctx, entry))

	// malformed payloads are acked and dropped
	require.NoError(t, pubSub.Publish("coaching-test", message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	assert.Eventually(t, func() bool {
		return len(store.ActionLogs()) == 1 && forwarder.count() == 1
	}, time.Second, 10*time.Millisecond)

	logs := store.ActionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entry.Id, logs[0].Id)
	assert.Equal(t, entry.UserId, logs[0].UserId)
	assert.Equal(t, "create_record", logs[0].ActionId)
	require.NotNil(t, logs[0].TriggerRef)
	assert.Equal(t, trigger, *logs[0].TriggerRef)

	forwarded, err := audit.EntryFromEvent(forwarder.events[0])
	require.NoError(t, err)
	assert.Equal(t, entry.Id, forwarded.Id)
	assert.Equal(t, entry.Summary, forwarded.Summary)
}
