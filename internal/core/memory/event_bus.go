package memory

import (
	"context"
	"sync"

	"approvalflow/internal/domain"
)

// EventBus is an in-process implementation of the event bus port. Subscriber
// channels are buffered; a subscriber that stops draining loses events rather
// than blocking publishers.
type EventBus struct {
	mu               sync.Mutex
	resolvedSubs     []chan domain.StageResolvedEvent
	activatedSubs    []chan domain.StageActivatedEvent
	completedSubs    []chan domain.WorkflowCompletedEvent
	overdueSubs      []chan domain.StageOverdueEvent
	subscriberBuffer int
}

func NewEventBus() *EventBus {
	return &EventBus{subscriberBuffer: 64}
}

func publish[T any](subs []chan T, event T) {
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *EventBus) PublishStageResolved(ctx context.Context, event domain.StageResolvedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	publish(b.resolvedSubs, event)
	return nil
}

func (b *EventBus) PublishStageActivated(ctx context.Context, event domain.StageActivatedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	publish(b.activatedSubs, event)
	return nil
}

func (b *EventBus) PublishWorkflowCompleted(ctx context.Context, event domain.WorkflowCompletedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	publish(b.completedSubs, event)
	return nil
}

func (b *EventBus) PublishStageOverdue(ctx context.Context, event domain.StageOverdueEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	publish(b.overdueSubs, event)
	return nil
}

func (b *EventBus) SubscribeStageResolved(ctx context.Context) (<-chan domain.StageResolvedEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.StageResolvedEvent, b.subscriberBuffer)
	b.resolvedSubs = append(b.resolvedSubs, ch)
	return ch, nil
}

func (b *EventBus) SubscribeStageActivated(ctx context.Context) (<-chan domain.StageActivatedEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.StageActivatedEvent, b.subscriberBuffer)
	b.activatedSubs = append(b.activatedSubs, ch)
	return ch, nil
}

func (b *EventBus) SubscribeWorkflowCompleted(ctx context.Context) (<-chan domain.WorkflowCompletedEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.WorkflowCompletedEvent, b.subscriberBuffer)
	b.completedSubs = append(b.completedSubs, ch)
	return ch, nil
}

func (b *EventBus) SubscribeStageOverdue(ctx context.Context) (<-chan domain.StageOverdueEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan domain.StageOverdueEvent, b.subscriberBuffer)
	b.overdueSubs = append(b.overdueSubs, ch)
	return ch, nil
}
