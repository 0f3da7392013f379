// Package cues maps conversation events to named sound effects.
package cues

import (
	"strings"
	"unicode"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter"
)

// Sound names a procedural effect the browser knows how to synthesize.
type Sound string

const (
	SoundBlip     Sound = "blip"      // neutral typing
	SoundBlipLow  Sound = "blip_low"  // hostile or cold typing
	SoundBlipSoft Sound = "blip_soft" // sympathetic typing
	SoundBlipHigh Sound = "blip_high" // curious or philosophical typing
	SoundGlitch   Sound = "glitch"    // corrupted transmission typing
	SoundAlarm    Sound = "alarm"     // ERROR / WARNING lines
	SoundStatic   Sound = "static"    // pause beats
	SoundVoice    Sound = "voice"     // quoted crew recordings
	SoundConfirm  Sound = "confirm"   // player choice accepted
	SoundFinal    Sound = "final"     // final phase reached
)

// Cue is one sound request.
type Cue struct {
	Sound Sound        `json:"sound"`
	Mood  anomaly.Mood `json:"mood,omitempty"`
}

// Sink receives cues as they happen.
type Sink func(Cue)

// DefaultBlipEvery throttles typing blips to one per this many runes.
const DefaultBlipEvery = 2

// Router turns session events into cues.
type Router struct {
	sink      Sink
	blipEvery int
}

// NewRouter creates a router. blipEvery below 1 uses DefaultBlipEvery.
func NewRouter(sink Sink, blipEvery int) *Router {
	if sink == nil {
		sink = func(Cue) {}
	}
	if blipEvery < 1 {
		blipEvery = DefaultBlipEvery
	}
	return &Router{sink: sink, blipEvery: blipEvery}
}

// OnCharacterRevealed emits a typing blip for every blipEvery-th rune, never
// for whitespace.
func (r *Router) OnCharacterRevealed(line anomaly.Line, unit typewriter.Unit) {
	if unicode.IsSpace(unit.Rune) || unit.Index%r.blipEvery != 0 {
		return
	}
	r.sink(Cue{Sound: blipFor(line.Mood), Mood: line.Mood})
}

// OnLineEffect emits a one-shot effect when a line starts, if its content
// calls for one.
func (r *Router) OnLineEffect(line anomaly.Line) {
	if sound, ok := effectFor(line); ok {
		r.sink(Cue{Sound: sound, Mood: line.Mood})
	}
}

func (r *Router) OnChoiceMade(choice anomaly.Choice) {
	r.sink(Cue{Sound: SoundConfirm, Mood: choice.Mood})
}

func (r *Router) OnFinalReached() {
	r.sink(Cue{Sound: SoundFinal})
}

func blipFor(mood anomaly.Mood) Sound {
	switch mood {
	case anomaly.MoodGlitch:
		return SoundGlitch
	case anomaly.MoodHostile, anomaly.MoodCold:
		return SoundBlipLow
	case anomaly.MoodSympathetic:
		return SoundBlipSoft
	case anomaly.MoodCurious, anomaly.MoodPhilosophical:
		return SoundBlipHigh
	}
	return SoundBlip
}

func effectFor(line anomaly.Line) (Sound, bool) {
	switch {
	case line.IsPause():
		return SoundStatic, true
	case line.Kind == anomaly.LineVoice:
		return SoundVoice, true
	}
	upper := strings.ToUpper(line.Text)
	if strings.Contains(upper, "ERROR") || strings.Contains(upper, "WARNING") {
		return SoundAlarm, true
	}
	return "", false
}
