package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndRejectsDuplicates(t *testing.T) {
	reconcile := &stubJob{name: "wallet-reconcile"}
	retention := &stubJob{name: "outbox-retention"}
	registry, err := NewRegistry(reconcile, nil, retention)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != reconcile || jobs[1] != retention {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}

	if err := registry.Register(&stubJob{name: "wallet-reconcile"}); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if err := registry.Register(&stubJob{name: "  "}); err == nil {
		t.Fatal("expected blank name to be rejected")
	}
	if _, err := NewRegistry(reconcile, reconcile); err == nil {
		t.Fatal("expected constructor to reject duplicates")
	}
}

func TestRegistrySelect(t *testing.T) {
	registry, err := NewRegistry(&stubJob{name: "a"}, &stubJob{name: "b"}, &stubJob{name: "c"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	all, err := registry.Select(nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected every job, got %d err=%v", len(all), err)
	}

	picked, err := registry.Select([]string{"c", "a"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(picked) != 2 || picked[0].Name() != "a" || picked[1].Name() != "c" {
		t.Fatalf("expected registration order a,c got %v", picked)
	}

	if _, err := registry.Select([]string{"missing"}); err == nil {
		t.Fatal("expected unknown job error")
	}
}
