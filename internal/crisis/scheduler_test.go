package crisis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
)

func startScheduler(t *testing.T, s *Scheduler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
	return cancel
}

func TestSchedulerFiresRepeatedly(t *testing.T) {
	var fires atomic.Int32
	s := NewScheduler("test", 10*time.Millisecond, false, func(context.Context) {
		fires.Add(1)
	}, logging.NewLoggerWithService("towncrier-test"))
	startScheduler(t, s)

	deadline := time.Now().Add(2 * time.Second)
	for fires.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := fires.Load(); got < 3 {
		t.Fatalf("got %d fires, want at least 3", got)
	}
}

func TestSchedulerStartsPausedAndFiresNothing(t *testing.T) {
	var fires atomic.Int32
	s := NewScheduler("test", time.Millisecond, true, func(context.Context) {
		fires.Add(1)
	}, logging.NewLoggerWithService("towncrier-test"))
	startScheduler(t, s)

	time.Sleep(100 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("paused scheduler fired %d times", got)
	}

	s.Resume()
	deadline := time.Now().Add(2 * time.Second)
	for fires.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fires.Load() == 0 {
		t.Fatal("scheduler did not fire after Resume")
	}
}

func TestSchedulerPauseStopsFurtherFires(t *testing.T) {
	var fires atomic.Int32
	s := NewScheduler("test", 5*time.Millisecond, false, func(context.Context) {
		fires.Add(1)
	}, logging.NewLoggerWithService("towncrier-test"))
	startScheduler(t, s)

	deadline := time.Now().Add(2 * time.Second)
	for fires.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.Pause()
	// A fire already past the timer may still land; give it a moment,
	// then the count must hold steady.
	time.Sleep(20 * time.Millisecond)
	settled := fires.Load()
	time.Sleep(150 * time.Millisecond)
	if got := fires.Load(); got != settled {
		t.Fatalf("scheduler fired %d more times while paused", got-settled)
	}
}

// A shorter period must produce a visibly faster cadence than a longer one
// over the same window. Broad margins keep this stable on loaded machines.
func TestSchedulerSetPeriodSpeedsUpCadence(t *testing.T) {
	var fires atomic.Int32
	s := NewScheduler("test", 75*time.Millisecond, false, func(context.Context) {
		fires.Add(1)
	}, logging.NewLoggerWithService("towncrier-test"))
	startScheduler(t, s)

	time.Sleep(200 * time.Millisecond)
	slow := fires.Load()

	s.SetPeriod(5 * time.Millisecond)
	// The pending 75ms fire is not rescheduled; allow it to drain first.
	time.Sleep(100 * time.Millisecond)
	base := fires.Load()
	time.Sleep(200 * time.Millisecond)
	fast := fires.Load() - base

	if slow > 5 {
		t.Fatalf("slow window fired %d times, period not respected", slow)
	}
	if fast <= slow {
		t.Fatalf("fast window fired %d times, slow window %d, expected a speedup", fast, slow)
	}
}

func TestSchedulerZeroPeriodIdlesUntilSet(t *testing.T) {
	var fires atomic.Int32
	s := NewScheduler("test", 0, false, func(context.Context) {
		fires.Add(1)
	}, logging.NewLoggerWithService("towncrier-test"))
	startScheduler(t, s)

	time.Sleep(50 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("idle scheduler fired %d times", got)
	}

	s.SetPeriod(5 * time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for fires.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fires.Load() == 0 {
		t.Fatal("scheduler never woke after SetPeriod")
	}
}

func TestSchedulerPauseResumeAreIdempotent(t *testing.T) {
	s := NewScheduler("test", time.Second, false, func(context.Context) {}, logging.NewLoggerWithService("towncrier-test"))

	s.Pause()
	s.Pause()
	if !s.Paused() {
		t.Fatal("scheduler not paused")
	}
	s.Resume()
	s.Resume()
	if s.Paused() {
		t.Fatal("scheduler still paused")
	}
	if got := s.Period(); got != time.Second {
		t.Fatalf("Period() = %v, want 1s", got)
	}
}
