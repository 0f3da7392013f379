// Package encounter runs one anomaly conversation for one player: it paces the
// script through the typewriter, routes cues and fetches the ending reward.
package encounter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter"
)

// Config controls pacing and the reward request.
type Config struct {
	Typewriter    typewriter.Config
	LineGap       time.Duration // Pause between consecutive lines
	RewardTimeout time.Duration // Deadline for the reward fetch
	User          string        // Reported to the reward issuer; defaults to the session ID
}

// DefaultConfig returns the terminal pacing.
func DefaultConfig() Config {
	return Config{
		Typewriter:    typewriter.DefaultConfig(),
		LineGap:       400 * time.Millisecond,
		RewardTimeout: 5 * time.Second,
	}
}

// Option customizes a Session.
type Option func(*Session)

func WithCues(c CueRouter) Option {
	return func(s *Session) {
		if c != nil {
			s.cues = c
		}
	}
}

func WithIssuer(i RewardIssuer) Option {
	return func(s *Session) {
		if i != nil {
			s.issuer = i
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithScheduler replaces the wall-clock scheduler, typically with a manual one
// in tests.
func WithScheduler(sched typewriter.Scheduler) Option {
	return func(s *Session) {
		if sched != nil {
			s.sched = sched
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// sink says where a fully revealed line is recorded.
type sink int

const (
	toHistory   sink = iota // entity replies, part of the conversation
	toNarration             // intro and ending text
)

type queuedLine struct {
	line anomaly.Line
	sink sink
}

// step is what runs once the line queue drains.
type step int

const (
	stepNone step = iota
	stepBegin
	stepSettle
	stepEnding
)

// Session is the single writer for one playthrough. Host events and timer
// callbacks are serialized on mu.
type Session struct {
	mu sync.Mutex

	id       string
	engine   *anomaly.Engine
	cfg      Config
	sched    typewriter.Scheduler
	seq      *typewriter.Sequencer
	cues     CueRouter
	issuer   RewardIssuer
	observer Observer
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state     *anomaly.State
	narration []anomaly.Entry
	queue     []queuedLine
	typing    *queuedLine
	gap       typewriter.Timer
	gapGen    uint64
	after     step
	ending    *endingRun
	epoch     uint64
	version   uint64
	closed    bool
	active    time.Time
}

// New creates a session that has not started yet.
func New(engine *anomaly.Engine, cfg Config, opts ...Option) *Session {
	def := DefaultConfig()
	if cfg.LineGap < 0 {
		cfg.LineGap = def.LineGap
	}
	if cfg.RewardTimeout <= 0 {
		cfg.RewardTimeout = def.RewardTimeout
	}

	s := &Session{
		id:       uuid.NewString(),
		engine:   engine,
		cfg:      cfg,
		sched:    typewriter.RealScheduler{},
		cues:     noopCues{},
		issuer:   noopIssuer{},
		observer: noopObserver{},
		log:      zap.NewNop(),
		active:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("encounter").With(zap.String("session", s.id))
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.seq = typewriter.New(lockedScheduler{s}, cfg.Typewriter)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastActive returns the time of the latest host event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Touch marks the session active without changing it.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = time.Now()
}

// Version increases whenever the view changes.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Start plays the intro. Calling it again is a no-op; use Restart.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != nil {
		return
	}
	s.active = time.Now()
	s.begin()
}

// SubmitChoice applies an offered choice. It reports whether the choice was
// accepted; choices made while text is still revealing are ignored.
func (s *Session) SubmitChoice(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == nil || s.busy() {
		return false
	}
	s.active = time.Now()

	switch s.state.Phase {
	case anomaly.PhaseConversation:
		reply, ok := s.engine.Choose(s.state, id)
		if !ok {
			return false
		}
		s.cues.OnChoiceMade(reply.Choice)
		s.observer.ChoiceAccepted(reply.Choice, reply.Points)
		s.log.Debug("choice accepted",
			zap.String("response", string(reply.Choice.Key)),
			zap.Int("points", s.state.Points),
			zap.Int("turn", s.state.TurnCount))
		s.play(stepSettle, toHistory, reply.Lines)

	case anomaly.PhaseFinal:
		choice, found := offered(s.state.Offer, id)
		if !found {
			return false
		}
		if _, ok := s.engine.ChooseFinal(s.state, id); !ok {
			return false
		}
		s.cues.OnChoiceMade(choice)
		s.startEnding()

	default:
		return false
	}
	s.version++
	return true
}

// Skip completes the line being typed, or flushes every queued line when
// called between lines. It reports whether anything changed.
func (s *Session) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == nil {
		return false
	}
	s.active = time.Now()

	switch {
	case s.seq.Live():
		s.seq.Skip()
	case s.gap != nil || len(s.queue) > 0:
		s.flush()
	case s.ending != nil && !s.ending.complete && s.ending.fetching:
		s.ending.complete = true
	default:
		return false
	}
	s.version++
	return true
}

// Restart discards the playthrough and plays the intro again. A reward fetch
// still in flight is left to finish and its result is dropped.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.active = time.Now()
	s.epoch++
	s.seq.Cancel()
	s.stopGap()
	s.queue = nil
	s.typing = nil
	s.after = stepNone
	s.begin()
	s.version++
}

// Close stops all timers and cancels any reward fetch.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.seq.Cancel()
	s.stopGap()
	s.queue = nil
	s.typing = nil
}

func (s *Session) begin() {
	s.state = anomaly.NewState()
	s.narration = nil
	s.ending = nil
	s.observer.SessionStarted()
	s.log.Debug("encounter started")
	s.play(stepBegin, toNarration, s.engine.IntroLines())
}

func (s *Session) busy() bool {
	return s.seq.Live() || s.gap != nil || len(s.queue) > 0
}

// play queues lines and runs after once they are all revealed.
func (s *Session) play(after step, to sink, lines []anomaly.Line) {
	for _, line := range lines {
		s.queue = append(s.queue, queuedLine{line: line, sink: to})
	}
	s.after = after
	s.next()
}

func (s *Session) next() {
	if s.seq.Live() || s.gap != nil {
		return
	}
	if len(s.queue) == 0 {
		s.drained()
		return
	}
	q := s.queue[0]
	s.queue = s.queue[1:]
	s.reveal(q)
}

func (s *Session) reveal(q queuedLine) {
	q.line = s.withMood(q.line)
	s.typing = &q
	s.cues.OnLineEffect(q.line)
	line := q.line
	s.seq.Start(line.Text,
		func(u typewriter.Unit) { s.cues.OnCharacterRevealed(line, u) },
		func(string) { s.lineDone(q) },
	)
}

func (s *Session) lineDone(q queuedLine) {
	s.typing = nil
	s.record(q)
	if len(s.queue) == 0 {
		s.drained()
		return
	}
	s.gapGen++
	gen := s.gapGen
	s.gap = lockedScheduler{s}.AfterFunc(s.cfg.LineGap, func() {
		if gen != s.gapGen {
			return
		}
		s.gap = nil
		s.next()
	})
}

func (s *Session) stopGap() {
	if s.gap != nil {
		s.gap.Stop()
		s.gap = nil
	}
	s.gapGen++
}

// flush records every queued line at once.
func (s *Session) flush() {
	s.stopGap()
	queue := s.queue
	s.queue = nil
	for _, q := range queue {
		q.line = s.withMood(q.line)
		s.record(q)
	}
	s.drained()
	if s.ending != nil {
		s.ending.complete = true
	}
}

func (s *Session) record(q queuedLine) {
	if q.sink == toHistory {
		s.state.AppendEntity(q.line)
		return
	}
	s.narration = append(s.narration, anomaly.Entry{
		Speaker: anomaly.SpeakerEntity,
		Text:    q.line.Text,
		Mood:    q.line.Mood,
		Voice:   q.line.Voice,
	})
}

func (s *Session) drained() {
	after := s.after
	s.after = stepNone
	switch after {
	case stepBegin:
		if err := s.engine.Begin(s.state); err != nil {
			s.log.Warn("could not begin conversation", zap.Error(err))
		}
	case stepSettle:
		if s.engine.Settle(s.state) {
			s.cues.OnFinalReached()
			s.observer.FinalReached(s.state.Progress())
			s.log.Debug("final phase reached",
				zap.Int("points", s.state.Points),
				zap.Int("turn", s.state.TurnCount))
		}
	case stepEnding:
		s.endingDrained()
	}
}

func (s *Session) withMood(line anomaly.Line) anomaly.Line {
	if line.Mood == "" {
		line.Mood = s.state.Mood
	}
	return line
}

func offered(offer []anomaly.Choice, id int) (anomaly.Choice, bool) {
	for _, c := range offer {
		if c.ID == id {
			return c, true
		}
	}
	return anomaly.Choice{}, false
}

// lockedScheduler runs callbacks under the session lock, dropping them once
// the session is closed.
type lockedScheduler struct {
	s *Session
}

func (l lockedScheduler) AfterFunc(d time.Duration, f func()) typewriter.Timer {
	return l.s.sched.AfterFunc(d, func() {
		l.s.mu.Lock()
		defer l.s.mu.Unlock()
		if l.s.closed {
			return
		}
		f()
		l.s.version++
	})
}
