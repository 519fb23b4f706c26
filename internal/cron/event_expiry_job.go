package cron

import (
	"context"
	"fmt"
	"time"
)

type eventDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewEventExpiryJob turns off active events whose expiry has passed.
func NewEventExpiryJob(events eventDeactivator) (Job, error) {
	if events == nil {
		return nil, fmt.Errorf("event service required")
	}
	return &eventExpiryJob{events: events, now: time.Now}, nil
}

type eventExpiryJob struct {
	events eventDeactivator
	now    func() time.Time
}

func (j *eventExpiryJob) Name() string { return "event-expiry" }

func (j *eventExpiryJob) Run(ctx context.Context) (int64, error) {
	n, err := j.events.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("event expiry: %w", err)
	}
	return n, nil
}
