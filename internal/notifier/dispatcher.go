package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"

	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"
)

// Sink receives rendered notifications. Delivery (email, SMS, webhook) lives
// behind this interface.
type Sink interface {
	Notify(ctx context.Context, subject, body string) error
}

// LogSink writes notifications to the process log. The default sink until a
// real delivery channel is wired in.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Notify(ctx context.Context, subject, body string) error {
	log.Printf("Notify: %s — %s", subject, body)
	return nil
}

// Dispatcher consumes stage lifecycle events from the bus and turns them into
// notifications. It never touches workflow state.
type Dispatcher struct {
	bus  ports.EventBus
	sink Sink
}

func NewDispatcher(bus ports.EventBus, sink Sink) *Dispatcher {
	return &Dispatcher{bus: bus, sink: sink}
}

// Start begins the listening loop. Call this in main.go as a goroutine; it
// returns when the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	resolved, err := d.bus.SubscribeStageResolved(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to stage resolved events: %w", err)
	}
	activated, err := d.bus.SubscribeStageActivated(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to stage activated events: %w", err)
	}
	completed, err := d.bus.SubscribeWorkflowCompleted(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to workflow completed events: %w", err)
	}
	overdue, err := d.bus.SubscribeStageOverdue(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to stage overdue events: %w", err)
	}

	log.Println("Dispatcher started, listening for events...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Dispatcher shutting down...")
			return nil

		case ev := <-resolved:
			d.notify(ctx,
				fmt.Sprintf("Stage %s %sd for %s", ev.Stage, ev.Outcome, ev.RequestRef),
				resolvedBody(ev))

		case ev := <-activated:
			body := fmt.Sprintf("%s is now waiting on %s.", ev.Stage, ev.AssigneeRole)
			if len(ev.RequiredDocuments) > 0 {
				body += " Required documents: " + strings.Join(ev.RequiredDocuments, ", ") + "."
			}
			d.notify(ctx, fmt.Sprintf("Action needed on %s", ev.RequestRef), body)

		case ev := <-completed:
			verdict := "approved at every stage"
			if ev.Status == domain.InstanceFailed {
				verdict = "rejected"
			}
			d.notify(ctx,
				fmt.Sprintf("Workflow finished for %s", ev.RequestRef),
				fmt.Sprintf("The request was %s.", verdict))

		case ev := <-overdue:
			d.notify(ctx,
				fmt.Sprintf("Reminder: %s pending on %s", ev.Stage, ev.RequestRef),
				fmt.Sprintf("%s has been waiting on %s since %s.", ev.Stage, ev.AssigneeRole, ev.Since.Format("2006-01-02 15:04")))
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, subject, body string) {
	if err := d.sink.Notify(ctx, subject, body); err != nil {
		log.Printf("Dispatcher: failed to deliver %q: %v", subject, err)
	}
}

func resolvedBody(ev domain.StageResolvedEvent) string {
	body := fmt.Sprintf("%s resolved the stage.", ev.Actor)
	if ev.Comment != "" {
		body += " Comment: " + ev.Comment
	}
	return body
}
