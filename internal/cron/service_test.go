package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name     string
	affected int64
	err      error
	runs     int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) (int64, error) {
	t.runs++
	return t.affected, t.err
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Lock:     lock,
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)
	ok := &testJob{name: "ok", affected: 3}
	bad := &testJob{name: "bad", err: errors.New("boom")}
	lock := &fakeLock{}
	svc := newTestService(t, lock, m, ok, bad)

	ran, err := svc.RunOnce(context.Background())
	if !ran {
		t.Fatal("expected the cycle to run")
	}
	if err == nil || !strings.Contains(err.Error(), "bad: boom") {
		t.Fatalf("expected the failed job in the cycle error, got %v", err)
	}
	if ok.runs != 1 || bad.runs != 1 {
		t.Fatalf("expected each job once, got ok=%d bad=%d", ok.runs, bad.runs)
	}
	if lock.releases != 1 || lock.held {
		t.Fatalf("expected lock released once, releases=%d held=%v", lock.releases, lock.held)
	}

	expected := `
# HELP storefront_cron_job_runs_total Cron job runs by outcome.
# TYPE storefront_cron_job_runs_total counter
storefront_cron_job_runs_total{job="bad",outcome="failure"} 1
storefront_cron_job_runs_total{job="ok",outcome="success"} 1
# HELP storefront_cron_job_rows_affected_total Rows changed by successful cron job runs.
# TYPE storefront_cron_job_rows_affected_total counter
storefront_cron_job_rows_affected_total{job="ok"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"storefront_cron_job_runs_total", "storefront_cron_job_rows_affected_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	if n, err := testutil.GatherAndCount(reg, "storefront_cron_job_duration_seconds"); err != nil || n != 2 {
		t.Fatalf("expected 2 duration series, got %d", n)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "never"}
	svc := newTestService(t, &fakeLock{held: true}, nil, job)

	ran, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if ran || job.runs != 0 {
		t.Fatalf("expected skip, ran=%v runs=%d", ran, job.runs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "first"}
	svc := newTestService(t, &fakeLock{}, nil, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the immediate cycle to run once, got %d", job.runs)
	}
}
