package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

type fakeLock struct {
	held      bool
	extendOK  bool
	extends   int
	releases  int
	ttl       time.Duration
	acquireFn func() (bool, error)
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireFn != nil {
		return f.acquireFn()
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Extend(context.Context) (bool, error) {
	f.extends++
	return f.extendOK, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

func (f *fakeLock) TTL() time.Duration {
	if f.ttl == 0 {
		return time.Minute
	}
	return f.ttl
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline time.Time
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	t.deadline, _ = ctx.Deadline()
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "wallet-reconcile"}
	failing := &testJob{name: "outbox-retention", err: errors.New("boom")}
	lock := &fakeLock{extendOK: true}
	service := newTestService(t, lock, failing, ok)

	err := service.RunOnce(context.Background(), nil)
	if err == nil {
		t.Fatal("expected combined failure")
	}
	if errs := multierr.Errors(err); len(errs) != 1 || !strings.Contains(errs[0].Error(), "outbox-retention") {
		t.Fatalf("unexpected failures %v", errs)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got ok=%d failing=%d", ok.runs, failing.runs)
	}
	if lock.extends != 1 {
		t.Fatalf("expected lock extended between jobs, got %d", lock.extends)
	}
	if lock.releases != 1 || lock.held {
		t.Fatal("expected lock released after the cycle")
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &testJob{name: "wallet-reconcile"}
	lock := &fakeLock{held: true}
	service := newTestService(t, lock, job)

	if err := service.RunOnce(context.Background(), nil); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("job must not run without the lock")
	}
}

func TestRunCycleStopsWhenLockIsLost(t *testing.T) {
	first := &testJob{name: "a"}
	second := &testJob{name: "b"}
	lock := &fakeLock{extendOK: false}
	service := newTestService(t, lock, first, second)

	if err := service.RunOnce(context.Background(), nil); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if first.runs != 1 || second.runs != 0 {
		t.Fatalf("expected only the first job to run, got %d/%d", first.runs, second.runs)
	}
}

func TestRunJobIsBoundedByLockTTL(t *testing.T) {
	job := &testJob{name: "wallet-reconcile"}
	lock := &fakeLock{ttl: 3 * time.Second}
	service := newTestService(t, lock, job)

	before := time.Now()
	if err := service.RunOnce(context.Background(), []string{"wallet-reconcile"}); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if job.deadline.IsZero() || job.deadline.After(before.Add(3*time.Second+time.Second)) {
		t.Fatalf("expected deadline within lock ttl, got %v", job.deadline)
	}
}

func TestRunOnceRejectsUnknownJob(t *testing.T) {
	lock := &fakeLock{}
	service := newTestService(t, lock, &testJob{name: "a"})
	if err := service.RunOnce(context.Background(), []string{"nope"}); err == nil {
		t.Fatal("expected unknown job error")
	}
	if lock.held {
		t.Fatal("lock must not be taken for an invalid selection")
	}
}
