package redis

import (
	"context"
	"encoding/json"

	"approvalflow/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Pub/sub channels, one per event kind.
const (
	channelStageResolved     = "approvals:events:stage_resolved"
	channelStageActivated    = "approvals:events:stage_activated"
	channelWorkflowCompleted = "approvals:events:workflow_completed"
	channelStageOverdue      = "approvals:events:stage_overdue"
)

// EventBus publishes stage lifecycle events over Redis pub/sub and bridges
// subscriptions back onto typed Go channels.
type EventBus struct {
	client *redis.Client
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

func publishJSON[T any](ctx context.Context, client *redis.Client, channel string, event T) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, payload).Err()
}

// subscribeJSON forwards messages from a Redis channel to a typed Go channel
// until the context is cancelled. Messages that fail to decode are dropped.
func subscribeJSON[T any](ctx context.Context, client *redis.Client, channel string) (<-chan T, error) {
	pubsub := client.Subscribe(ctx, channel)

	msgChan := make(chan T)
	go func() {
		defer close(msgChan)
		defer pubsub.Close()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				// Context cancelled or connection gone
				if ctx.Err() != nil {
					return
				}
				continue
			}
			var event T
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case msgChan <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

func (b *EventBus) PublishStageResolved(ctx context.Context, event domain.StageResolvedEvent) error {
	return publishJSON(ctx, b.client, channelStageResolved, event)
}

func (b *EventBus) PublishStageActivated(ctx context.Context, event domain.StageActivatedEvent) error {
	return publishJSON(ctx, b.client, channelStageActivated, event)
}

func (b *EventBus) PublishWorkflowCompleted(ctx context.Context, event domain.WorkflowCompletedEvent) error {
	return publishJSON(ctx, b.client, channelWorkflowCompleted, event)
}

func (b *EventBus) PublishStageOverdue(ctx context.Context, event domain.StageOverdueEvent) error {
	return publishJSON(ctx, b.client, channelStageOverdue, event)
}

func (b *EventBus) SubscribeStageResolved(ctx context.Context) (<-chan domain.StageResolvedEvent, error) {
	return subscribeJSON[domain.StageResolvedEvent](ctx, b.client, channelStageResolved)
}

func (b *EventBus) SubscribeStageActivated(ctx context.Context) (<-chan domain.StageActivatedEvent, error) {
	return subscribeJSON[domain.StageActivatedEvent](ctx, b.client, channelStageActivated)
}

func (b *EventBus) SubscribeWorkflowCompleted(ctx context.Context) (<-chan domain.WorkflowCompletedEvent, error) {
	return subscribeJSON[domain.WorkflowCompletedEvent](ctx, b.client, channelWorkflowCompleted)
}

func (b *EventBus) SubscribeStageOverdue(ctx context.Context) (<-chan domain.StageOverdueEvent, error) {
	return subscribeJSON[domain.StageOverdueEvent](ctx, b.client, channelStageOverdue)
}
