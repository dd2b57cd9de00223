package usecase

import (
	"context"
	"testing"
	"time"
)

type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualScheduler) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func TestSchedulerRunsAndSaves(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	council := seedAssembly(t, store)
	driver := &manualScheduler{}

	s := NewScheduler(driver, newTestRunner(store, nil), nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if driver.job == nil {
		t.Fatal("job was not registered")
	}

	driver.job(time.Now())

	members, err := store.RelatedObjects(context.Background(), council.ID, "Member")
	if err != nil {
		t.Fatalf("RelatedObjects: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("scheduled runs must save results, got %d members", len(members))
	}

	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop: %v (stopped=%v)", err, driver.stopped)
	}
}
