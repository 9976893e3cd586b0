package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// RunFunc executes one backup pipeline pass. It must hold its own in-flight
// guard and return ErrBackupInProgress when another pass already does.
type RunFunc func(ctx context.Context) error

// PersistFunc records the next due timestamp so the countdown survives
// restarts. It is called on every arm and after every tick.
type PersistFunc func(next time.Time)

// Scheduler owns the repeating backup timer for one user. All ticks funnel
// through the caller-supplied RunFunc; the scheduler itself never runs two
// pipelines at once and never queues a skipped tick. Stopping only prevents
// future ticks — a pass that already started runs to completion.
type Scheduler struct {
	clk     clock.Clock
	run     RunFunc
	persist PersistFunc

	mu       sync.Mutex
	armed    bool
	interval time.Duration
	sched    cron.Schedule
	nextDue  time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a disarmed scheduler.
func NewScheduler(clk clock.Clock, run RunFunc, persist PersistFunc) *Scheduler {
	return &Scheduler{clk: clk, run: run, persist: persist}
}

// Start arms the repeating timer at the given cadence, computing the first
// due time from now. Calling Start while already armed is a reconfiguration:
// the old timer is cancelled and the countdown restarts from now.
func (s *Scheduler) Start(intervalMinutes int) error {
	return s.arm(intervalMinutes, time.Time{})
}

// Resume arms the timer with the first fire at a previously persisted due
// time, keeping the countdown continuous across a restart. A due time in the
// past falls back to Start semantics.
func (s *Scheduler) Resume(intervalMinutes int, nextDue time.Time) error {
	if !nextDue.After(s.clk.Now()) {
		nextDue = time.Time{}
	}
	return s.arm(intervalMinutes, nextDue)
}

func (s *Scheduler) arm(intervalMinutes int, firstDue time.Time) error {
	if !models.ValidInterval(intervalMinutes) {
		return fmt.Errorf("unsupported backup interval: %d minutes", intervalMinutes)
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("@every %dm", intervalMinutes))
	if err != nil {
		return fmt.Errorf("parse interval spec: %w", err)
	}

	s.Stop()

	s.mu.Lock()
	now := s.clk.Now()
	if firstDue.IsZero() {
		firstDue = sched.Next(now)
	}
	s.armed = true
	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.sched = sched
	s.nextDue = firstDue
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	if s.persist != nil {
		s.persist(firstDue)
	}

	log.Info().
		Int("interval_minutes", intervalMinutes).
		Time("next_due_at", firstDue).
		Msg("Auto backup scheduler armed")

	go s.loop(ctx, done)
	return nil
}

// Stop disarms the timer. It is idempotent and does not touch artifacts or
// an in-flight pass.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.armed = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Auto backup scheduler stopped")
}

// Armed reports whether the repeating timer is currently set.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// NextDue returns the next scheduled fire time, if armed.
func (s *Scheduler) NextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return time.Time{}, false
	}
	return s.nextDue, true
}

// TimeUntilNext returns max(0, nextDueAt - now), and false when disarmed.
func (s *Scheduler) TimeUntilNext() (time.Duration, bool) {
	next, ok := s.NextDue()
	if !ok {
		return 0, false
	}
	remaining := next.Sub(s.clk.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.mu.Lock()
	timer := s.clk.NewTimer(s.nextDue.Sub(s.clk.Now()))
	s.mu.Unlock()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			s.tick(ctx)
			s.mu.Lock()
			s.nextDue = s.sched.Next(s.clk.Now())
			next := s.nextDue
			timer.Reset(next.Sub(s.clk.Now()))
			s.mu.Unlock()
			if s.persist != nil {
				s.persist(next)
			}
		}
	}
}

// tick runs one scheduled pass. A pass already in flight means this tick is
// skipped outright; a failed pass does not fast-retry. Either way the next
// attempt is the next scheduled tick.
func (s *Scheduler) tick(ctx context.Context) {
	err := s.run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrBackupInProgress):
		log.Info().Msg("Scheduled backup tick skipped: a backup is already in flight")
	default:
		log.Error().Err(err).Msg("Scheduled backup failed; next attempt at the next tick")
	}
}
