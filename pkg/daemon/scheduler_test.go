package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsTask(t *testing.T) {
	var runs int32
	s := NewScheduler(func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	// Every-second schedule so the test finishes quickly.
	if err := s.Schedule("* * * * * *"); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&runs) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("task never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	s := NewScheduler(func() error { return nil })
	if err := s.Schedule("not a cron line"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSchedulerStatus(t *testing.T) {
	s := NewScheduler(func() error { return nil })

	next, running := s.Status()
	if running || !next.IsZero() {
		t.Fatalf("fresh scheduler status = (%v, %t)", next, running)
	}

	if err := s.Schedule("0 3 * * *"); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	next, running = s.Status()
	if !running {
		t.Fatal("scheduler should report running")
	}
	if next.IsZero() || !next.After(time.Now()) {
		t.Fatalf("next run = %v", next)
	}

	// Start is idempotent.
	s.Start()
}
