package crisis

import (
	"context"
	"sync"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
)

// Scheduler arms a timer and runs a task every time it fires. The period is
// re-read each time the timer arms, so speed changes apply on the next tick
// without rescheduling a pending one. Pause cancels the pending fire and
// keeps all other state; Resume re-arms immediately.
type Scheduler struct {
	name   string
	task   func(context.Context)
	logger logging.Logger

	mu     sync.Mutex
	period time.Duration
	paused bool

	kick chan struct{}
}

func NewScheduler(name string, period time.Duration, paused bool, task func(context.Context), logger logging.Logger) *Scheduler {
	return &Scheduler{
		name:   name,
		task:   task,
		logger: logger,
		period: period,
		paused: paused,
		kick:   make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled, firing the task on schedule.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		paused, period := s.paused, s.period
		s.mu.Unlock()

		if paused || period <= 0 {
			select {
			case <-ctx.Done():
				return
			case <-s.kick:
			}
			continue
		}

		timer := time.NewTimer(period)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.kick:
			// Pending fire cancelled; state is re-read on the next pass.
			timer.Stop()
		case <-timer.C:
			s.task(ctx)
		}
	}
}

// SetPeriod changes the tick period, effective when the timer next arms. A
// pending fire is never rescheduled, but moving off a non-positive period
// wakes the loop so the timer cannot stay permanently stopped.
func (s *Scheduler) SetPeriod(d time.Duration) {
	s.mu.Lock()
	wasIdle := s.period <= 0
	s.period = d
	s.mu.Unlock()
	if wasIdle && d > 0 {
		s.wake()
	}
}

// Pause cancels any pending fire and stops arming until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	alreadyPaused := s.paused
	s.paused = true
	s.mu.Unlock()
	if !alreadyPaused {
		s.wake()
		if s.logger != nil {
			s.logger.WithField("scheduler", s.name).Debug("Scheduler paused")
		}
	}
}

// Resume re-arms the timer with the current period.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	wasPaused := s.paused
	s.paused = false
	s.mu.Unlock()
	if wasPaused {
		s.wake()
		if s.logger != nil {
			s.logger.WithField("scheduler", s.name).Debug("Scheduler resumed")
		}
	}
}

// Paused reports whether the scheduler is currently frozen.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Period returns the current tick period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

func (s *Scheduler) wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}
