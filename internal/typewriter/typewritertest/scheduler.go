// Package typewritertest provides a manually driven scheduler for tests.
package typewritertest

import (
	"sync"
	"time"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter"
)

// Scheduler runs callbacks only when the test advances its clock. Callbacks run
// on the caller's goroutine, outside the scheduler's lock, so they may schedule
// further callbacks.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	order  uint64
	timers []*timer
}

type timer struct {
	s       *Scheduler
	at      time.Duration
	order   uint64
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// New returns a scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// AfterFunc implements typewriter.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) typewriter.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order++
	t := &timer{s: s, at: s.now + d, order: s.order, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the virtual time elapsed since New.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of callbacks waiting to run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Next moves the clock to the earliest pending callback and runs it. It
// returns false when nothing is pending.
func (s *Scheduler) Next() bool {
	t := s.pop(-1)
	if t == nil {
		return false
	}
	t.f()
	return true
}

// Advance moves the clock forward by d, running every callback that falls due
// in order. It returns the number of callbacks run.
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	n := 0
	for {
		t := s.pop(target)
		if t == nil {
			break
		}
		t.f()
		n++
	}
	s.mu.Lock()
	if s.now < target {
		s.now = target
	}
	s.mu.Unlock()
	return n
}

// Drain runs callbacks until none are pending or limit callbacks have run. It
// returns the number run.
func (s *Scheduler) Drain(limit int) int {
	n := 0
	for n < limit && s.Next() {
		n++
	}
	return n
}

// pop removes the earliest live timer due at or before limit. A negative limit
// accepts any timer.
func (s *Scheduler) pop(limit time.Duration) *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.timers[:0]
	var next *timer
	for _, t := range s.timers {
		if t.stopped || t.fired {
			continue
		}
		live = append(live, t)
		if next == nil || t.at < next.at || (t.at == next.at && t.order < next.order) {
			next = t
		}
	}
	s.timers = live
	if next == nil || (limit >= 0 && next.at > limit) {
		return nil
	}
	next.fired = true
	if next.at > s.now {
		s.now = next.at
	}
	return next
}
