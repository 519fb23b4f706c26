package cron

import (
	"context"
	"fmt"
	"time"
)

type emailCodePurger interface {
	DeleteEmailCodesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewEmailCodeCleanupJob removes verification and reset codes older than the
// link lifetime. Such codes can never be redeemed.
func NewEmailCodeCleanupJob(codes emailCodePurger, linkTTL time.Duration) (Job, error) {
	if codes == nil {
		return nil, fmt.Errorf("email code repository required")
	}
	if linkTTL <= 0 {
		return nil, fmt.Errorf("link ttl must be positive")
	}
	return &emailCodeCleanupJob{codes: codes, ttl: linkTTL, now: time.Now}, nil
}

type emailCodeCleanupJob struct {
	codes emailCodePurger
	ttl   time.Duration
	now   func() time.Time
}

func (j *emailCodeCleanupJob) Name() string { return "email-code-cleanup" }

func (j *emailCodeCleanupJob) Run(ctx context.Context) (int64, error) {
	n, err := j.codes.DeleteEmailCodesBefore(ctx, j.now().UTC().Add(-j.ttl))
	if err != nil {
		return 0, fmt.Errorf("email code cleanup: %w", err)
	}
	return n, nil
}
