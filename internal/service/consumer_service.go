package service

import (
	"context"
	"encoding/json"

	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher forwards events to the shared bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	forwarder  EventPublisher
	logger     logger.ILogger
}

// NewConsumerService persists coaching audit entries published on topicName. A nil forwarder
// keeps entries local.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	forwarder EventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		forwarder:  forwarder,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var entry audit.Entry
	if err := json.Unmarshal(msg.Payload, &entry); err != nil {
		cs.logger.Error("AUDIT", "Failed to unmarshal audit entry", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	log := &entity.ActionLog{
		Id:         entry.Id,
		UserId:     entry.UserId,
		ActionId:   entry.ActionId,
		Params:     entry.Params,
		Summary:    entry.Summary,
		TriggerRef: entry.TriggerRef,
		CreatedAt:  entry.OccurredAt,
	}
	if err := uow.ActionLogRepository().Create(ctx, log); err != nil {
		cs.logger.Error("AUDIT", "Failed to persist action log", map[string]interface{}{
			"action_id": entry.ActionId,
			"user_id":   entry.UserId.String(),
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, entry.Event()); err != nil {
			cs.logger.Warn("AUDIT", "Failed to forward audit entry", map[string]interface{}{
				"action_id": entry.ActionId,
				"error":     err.Error(),
			})
		}
	}

	cs.logger.Info("AUDIT", "Action logged", map[string]interface{}{
		"action_id": entry.ActionId,
		"user_id":   entry.UserId.String(),
		"summary":   entry.Summary,
	})
	msg.Ack()
}
