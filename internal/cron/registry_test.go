package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string                       { return s.name }
func (s *stubJob) Run(context.Context) (int64, error) { return 0, nil }

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	a, b := &stubJob{name: "a"}, &stubJob{name: "b"}
	registry, err := NewRegistry(a, nil)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := registry.Register(nil); err != nil {
		t.Fatalf("nil job: %v", err)
	}
	if err := registry.Register(b); err != nil {
		t.Fatalf("register b: %v", err)
	}

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != a || jobs[1] != b {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateAndUnnamedJobs(t *testing.T) {
	if _, err := NewRegistry(&stubJob{name: "a"}, &stubJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	var registry Registry
	if err := registry.Register(&stubJob{}); err == nil {
		t.Fatal("expected unnamed job error")
	}
}
