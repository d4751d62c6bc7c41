package service

import (
	"context"
	"encoding/json"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/assistant/telemetry"
	"watchfolio-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher is the broker side of the telemetry pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// consumerService drains the in-process interaction topic and forwards each
// interaction to the NATS event bus for downstream analytics.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   EventPublisher
	log       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
		log:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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
	var interaction telemetry.Interaction
	if err := json.Unmarshal(msg.Payload, &interaction); err != nil {
		cs.log.Error("ConsumerService", "Failed to unmarshal interaction", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.natsPub == nil {
		// No broker configured; the interaction was already logged at source.
		msg.Ack()
		return
	}

	evt := events.NewInteractionEvent(interaction.SessionID, string(interaction.Type), interaction.OccurredAt)
	if err := cs.natsPub.Publish(ctx, evt); err != nil {
		// Telemetry is at-most-once: a lost interaction is logged, never
		// redelivered. A Nack here would loop the message forever while the
		// broker is down.
		cs.log.Error("ConsumerService", "Failed to forward interaction to NATS", map[string]interface{}{
			"session_id": interaction.SessionID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	cs.log.Info("ConsumerService", "Interaction forwarded", map[string]interface{}{
		"session_id":       interaction.SessionID,
		"interaction_type": string(interaction.Type),
	})
	msg.Ack()
}
