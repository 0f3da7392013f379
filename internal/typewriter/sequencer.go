// Package typewriter reveals text one rune at a time on a cancellable timer.
package typewriter

import (
	"iter"
	"time"
	"unicode/utf8"
)

// PauseMarker is revealed as a single beat after the pause delay.
const PauseMarker = "..."

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already ran
	// or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer heap.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Unit is emitted for every rune revealed by a running line.
type Unit struct {
	Index  int    // Rune index within the line
	Rune   rune   // The rune just revealed
	Prefix string // Text revealed so far, including Rune
}

// Prefixes yields the growing prefixes of text, one rune at a time. Each byte
// of an invalid UTF-8 sequence counts as one rune, and every prefix is a byte
// slice of text, so the last prefix is text itself. The sequence can be ranged
// over any number of times.
func Prefixes(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range text {
			if i == 0 {
				continue
			}
			if !yield(text[:i]) {
				return
			}
		}
		if text != "" {
			yield(text)
		}
	}
}

// IsPause reports whether text is revealed as a single pause beat.
func IsPause(text string) bool {
	return text == PauseMarker
}

// Config sets the reveal pacing.
type Config struct {
	CharInterval time.Duration // Delay between runes
	PauseDelay   time.Duration // Delay before a pause marker appears
}

// DefaultConfig returns the terminal pacing.
func DefaultConfig() Config {
	return Config{
		CharInterval: 30 * time.Millisecond,
		PauseDelay:   800 * time.Millisecond,
	}
}

// Sequencer reveals one line at a time. It is not safe for concurrent use; the
// owner serializes Start, Skip and the scheduler callbacks.
type Sequencer struct {
	sched Scheduler
	cfg   Config

	text   string
	pos    int // Bytes of text revealed
	index  int // Units emitted so far
	next   func() (string, bool)
	stop   func()
	timer  Timer
	gen    uint64
	live   bool
	onUnit func(Unit)
	onDone func(string)
}

// New creates a sequencer.
func New(sched Scheduler, cfg Config) *Sequencer {
	if sched == nil {
		sched = RealScheduler{}
	}
	if cfg.CharInterval <= 0 {
		cfg.CharInterval = DefaultConfig().CharInterval
	}
	if cfg.PauseDelay <= 0 {
		cfg.PauseDelay = DefaultConfig().PauseDelay
	}
	return &Sequencer{sched: sched, cfg: cfg}
}

// Start begins revealing text, cancelling any line still in progress. onUnit
// runs for each rune (never for a pause marker); onDone runs exactly once when
// the full text is shown.
func (s *Sequencer) Start(text string, onUnit func(Unit), onDone func(string)) {
	s.Cancel()
	s.text = text
	s.pos = 0
	s.index = 0
	s.live = true
	s.onUnit = onUnit
	s.onDone = onDone

	if IsPause(text) {
		s.schedule(s.cfg.PauseDelay, s.finish)
		return
	}
	s.next, s.stop = iter.Pull(Prefixes(text))
	s.schedule(s.cfg.CharInterval, s.tick)
}

// Skip completes the live line immediately. It reports whether a line was live.
func (s *Sequencer) Skip() bool {
	if !s.live {
		return false
	}
	s.stopTimer()
	s.finish()
	return true
}

// Cancel drops the live line without completing it.
func (s *Sequencer) Cancel() {
	s.stopTimer()
	s.release()
	s.live = false
	s.onUnit = nil
	s.onDone = nil
}

// Live reports whether a line is being revealed.
func (s *Sequencer) Live() bool { return s.live }

// Revealed returns the visible part of the current line.
func (s *Sequencer) Revealed() string {
	if !s.live {
		return s.text
	}
	if IsPause(s.text) {
		return ""
	}
	return s.text[:s.pos]
}

func (s *Sequencer) schedule(d time.Duration, step func()) {
	s.gen++
	gen := s.gen
	s.timer = s.sched.AfterFunc(d, func() {
		// a callback that lost the race with Stop must not touch the new line
		if gen != s.gen || !s.live {
			return
		}
		step()
	})
}

func (s *Sequencer) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// release stops the prefix iterator of the current line.
func (s *Sequencer) release() {
	if s.stop != nil {
		s.stop()
	}
	s.next, s.stop = nil, nil
}

func (s *Sequencer) tick() {
	if s.next == nil {
		s.finish()
		return
	}
	prefix, ok := s.next()
	if !ok {
		s.finish()
		return
	}
	s.pos = len(prefix)
	r, _ := utf8.DecodeLastRuneInString(prefix)
	unit := Unit{Index: s.index, Rune: r, Prefix: prefix}
	s.index++
	if s.onUnit != nil {
		s.onUnit(unit)
	}
	if !s.live {
		return
	}
	if s.pos >= len(s.text) {
		s.finish()
		return
	}
	s.schedule(s.cfg.CharInterval, s.tick)
}

func (s *Sequencer) finish() {
	s.timer = nil
	s.gen++
	s.release()
	s.pos = len(s.text)
	s.live = false
	done := s.onDone
	s.onUnit = nil
	s.onDone = nil
	if done != nil {
		done(s.text)
	}
}
