package reminder

import (
	"context"
	"log"
	"time"

	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"

	"github.com/robfig/cron/v3"
)

// Reminder periodically scans for stages that have been waiting on an
// assignee for longer than maxAge and publishes overdue events. It is a
// collaborator on top of the workflow store: it never resolves or rejects
// anything by itself.
type Reminder struct {
	repo   ports.InstanceRepository
	bus    ports.EventBus
	maxAge time.Duration
	cron   *cron.Cron
}

func New(repo ports.InstanceRepository, bus ports.EventBus, maxAge time.Duration) *Reminder {
	return &Reminder{
		repo:   repo,
		bus:    bus,
		maxAge: maxAge,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start schedules the scan. The schedule uses six-field cron syntax (with
// seconds), e.g. "0 0 * * * *" for hourly.
func (r *Reminder) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.scan); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("Reminder started with schedule %q, stage overdue after %s", schedule, r.maxAge)
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (r *Reminder) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reminder) scan() {
	ctx := context.Background()
	cutoff := time.Now().Add(-r.maxAge)

	overdue, err := r.repo.FindOverdueStages(ctx, cutoff)
	if err != nil {
		log.Printf("Reminder: overdue scan failed: %v", err)
		return
	}

	for _, o := range overdue {
		event := domain.StageOverdueEvent{
			InstanceID:   o.InstanceID,
			RequestRef:   o.RequestRef,
			Stage:        o.Stage,
			AssigneeRole: o.AssigneeRole,
			Since:        o.Since,
		}
		if err := r.bus.PublishStageOverdue(ctx, event); err != nil {
			log.Printf("Reminder: failed to publish overdue event for %s: %v", o.InstanceID, err)
		}
	}

	if len(overdue) > 0 {
		log.Printf("Reminder: published %d overdue stage reminders", len(overdue))
	}
}
