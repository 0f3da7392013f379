package typewriter_test

import (
	"slices"
	"testing"
	"time"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter/typewritertest"
)

var testConfig = typewriter.Config{
	CharInterval: 10 * time.Millisecond,
	PauseDelay:   500 * time.Millisecond,
}

type recorder struct {
	units []typewriter.Unit
	done  []string
}

func (r *recorder) unit(u typewriter.Unit) { r.units = append(r.units, u) }
func (r *recorder) finish(text string)     { r.done = append(r.done, text) }

func TestPrefixesGrowRuneByRune(t *testing.T) {
	got := slices.Collect(typewriter.Prefixes("añb"))
	want := []string{"a", "añ", "añb"}
	if !slices.Equal(got, want) {
		t.Fatalf("prefixes = %q, want %q", got, want)
	}

	// restartable
	again := slices.Collect(typewriter.Prefixes("añb"))
	if !slices.Equal(again, want) {
		t.Fatalf("second pass = %q, want %q", again, want)
	}

	if n := len(slices.Collect(typewriter.Prefixes(""))); n != 0 {
		t.Fatalf("empty text yielded %d prefixes", n)
	}
}

func TestPrefixesStopEarly(t *testing.T) {
	var got []string
	for p := range typewriter.Prefixes("hello") {
		got = append(got, p)
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"h", "he"}) {
		t.Fatalf("prefixes = %q", got)
	}
}

func TestSequencerRevealsEachRune(t *testing.T) {
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	rec := &recorder{}

	seq.Start("hi!", rec.unit, rec.finish)
	if !seq.Live() {
		t.Fatal("sequencer should be live after Start")
	}
	if seq.Revealed() != "" {
		t.Fatalf("revealed %q before first tick", seq.Revealed())
	}

	sched.Advance(10 * time.Millisecond)
	if seq.Revealed() != "h" {
		t.Fatalf("revealed %q after one tick", seq.Revealed())
	}

	sched.Drain(100)
	if seq.Live() {
		t.Fatal("sequencer still live after full reveal")
	}
	if len(rec.units) != 3 {
		t.Fatalf("got %d units, want 3", len(rec.units))
	}
	for i, u := range rec.units {
		if u.Index != i {
			t.Errorf("unit %d has index %d", i, u.Index)
		}
	}
	if rec.units[2].Prefix != "hi!" || rec.units[2].Rune != '!' {
		t.Errorf("last unit = %+v", rec.units[2])
	}
	if !slices.Equal(rec.done, []string{"hi!"}) {
		t.Fatalf("done = %q", rec.done)
	}
	if sched.Now() != 30*time.Millisecond {
		t.Errorf("finished at %v, want 30ms", sched.Now())
	}
}

func TestSequencerInvalidUTF8ConvergesOnText(t *testing.T) {
	const text = "ok\xffz"
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	rec := &recorder{}

	seq.Start(text, rec.unit, rec.finish)
	sched.Advance(30 * time.Millisecond)
	if seq.Revealed() != "ok\xff" {
		t.Fatalf("revealed %q mid-line, want raw bytes", seq.Revealed())
	}
	sched.Drain(100)

	want := slices.Collect(typewriter.Prefixes(text))
	if len(rec.units) != len(want) {
		t.Fatalf("got %d units, want %d", len(rec.units), len(want))
	}
	for i, u := range rec.units {
		if u.Prefix != want[i] {
			t.Errorf("unit %d prefix = %q, want %q", i, u.Prefix, want[i])
		}
	}
	if last := rec.units[len(rec.units)-1].Prefix; last != text {
		t.Errorf("last prefix = %q, want %q", last, text)
	}
	if !slices.Equal(rec.done, []string{text}) {
		t.Fatalf("done = %q", rec.done)
	}
}

func TestSequencerPauseMarkerIsOneBeat(t *testing.T) {
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	rec := &recorder{}

	seq.Start(typewriter.PauseMarker, rec.unit, rec.finish)
	sched.Advance(499 * time.Millisecond)
	if !seq.Live() || len(rec.done) != 0 {
		t.Fatal("pause revealed before its delay")
	}
	if seq.Revealed() != "" {
		t.Fatalf("pause partially revealed: %q", seq.Revealed())
	}

	sched.Advance(time.Millisecond)
	if seq.Live() {
		t.Fatal("pause still live after its delay")
	}
	if len(rec.units) != 0 {
		t.Fatalf("pause emitted %d units", len(rec.units))
	}
	if !slices.Equal(rec.done, []string{"..."}) {
		t.Fatalf("done = %q", rec.done)
	}
}

func TestSequencerEmptyTextCompletesOnFirstTick(t *testing.T) {
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	rec := &recorder{}

	seq.Start("", rec.unit, rec.finish)
	sched.Advance(10 * time.Millisecond)
	if seq.Live() || len(rec.done) != 1 || len(rec.units) != 0 {
		t.Fatalf("live=%v done=%q units=%d", seq.Live(), rec.done, len(rec.units))
	}
}

func TestSequencerSkipMatchesNaturalReveal(t *testing.T) {
	lines := []string{"Hello.", "...", "> CORE ACCESS GRANTED", "", "naïve ünïcode"}
	for _, line := range lines {
		natural := typewritertest.New()
		a := typewriter.New(natural, testConfig)
		recA := &recorder{}
		a.Start(line, recA.unit, recA.finish)
		natural.Drain(1000)

		skipped := typewritertest.New()
		b := typewriter.New(skipped, testConfig)
		recB := &recorder{}
		b.Start(line, recB.unit, recB.finish)
		if line != typewriter.PauseMarker && len([]rune(line)) > 1 {
			skipped.Next()
		}
		if !b.Skip() {
			t.Fatalf("%q: skip reported no live line", line)
		}

		if a.Revealed() != b.Revealed() {
			t.Errorf("%q: natural %q, skipped %q", line, a.Revealed(), b.Revealed())
		}
		if len(recB.done) != 1 || recB.done[0] != line {
			t.Errorf("%q: skip done = %q", line, recB.done)
		}
		if skipped.Drain(1000) != 0 {
			t.Errorf("%q: timers still fired after skip", line)
		}
		if len(recB.units) > 1 {
			t.Errorf("%q: %d units emitted around a skip", line, len(recB.units))
		}
	}
}

func TestSequencerSkipWhenIdle(t *testing.T) {
	seq := typewriter.New(typewritertest.New(), testConfig)
	if seq.Skip() {
		t.Fatal("skip on idle sequencer reported a live line")
	}
}

func TestSequencerStartCancelsPrevious(t *testing.T) {
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	first := &recorder{}
	second := &recorder{}

	seq.Start("first line", first.unit, first.finish)
	sched.Advance(20 * time.Millisecond)
	seq.Start("two", second.unit, second.finish)
	sched.Drain(1000)

	if len(first.done) != 0 {
		t.Fatalf("cancelled line completed: %q", first.done)
	}
	if len(first.units) != 2 {
		t.Fatalf("cancelled line kept ticking: %d units", len(first.units))
	}
	if !slices.Equal(second.done, []string{"two"}) {
		t.Fatalf("second done = %q", second.done)
	}
}

// staleScheduler fires callbacks even after Stop, like a timer that raced its
// cancellation.
type staleScheduler struct {
	pending []func()
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (s *staleScheduler) AfterFunc(_ time.Duration, f func()) typewriter.Timer {
	s.pending = append(s.pending, f)
	return noStop{}
}

func TestSequencerIgnoresStaleCallbacks(t *testing.T) {
	sched := &staleScheduler{}
	seq := typewriter.New(sched, testConfig)
	old := &recorder{}
	cur := &recorder{}

	seq.Start("abc", old.unit, old.finish)
	stale := sched.pending[0]
	seq.Start("xy", cur.unit, cur.finish)

	stale()
	if len(old.units) != 0 || len(cur.units) != 0 {
		t.Fatalf("stale callback emitted units: old=%d cur=%d", len(old.units), len(cur.units))
	}
	if seq.Revealed() != "" {
		t.Fatalf("stale callback advanced the new line to %q", seq.Revealed())
	}

	sched.pending[1]()
	if seq.Revealed() != "x" {
		t.Fatalf("revealed %q after live tick", seq.Revealed())
	}
}

func TestSequencerCancelDropsLine(t *testing.T) {
	sched := typewritertest.New()
	seq := typewriter.New(sched, testConfig)
	rec := &recorder{}

	seq.Start("abc", rec.unit, rec.finish)
	seq.Cancel()
	sched.Drain(100)
	if seq.Live() || len(rec.units) != 0 || len(rec.done) != 0 {
		t.Fatalf("cancelled line still ran: live=%v units=%d done=%q", seq.Live(), len(rec.units), rec.done)
	}
}
