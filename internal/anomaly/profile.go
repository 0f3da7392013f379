package anomaly

// Trait is one dimension of the character profile.
type Trait string

const (
	TraitEmpathetic      Trait = "empathetic"
	TraitConfrontational Trait = "confrontational"
	TraitPhilosophical   Trait = "philosophical"
	TraitPragmatic       Trait = "pragmatic"
)

// Traits lists every profile dimension in display order.
var Traits = []Trait{TraitEmpathetic, TraitConfrontational, TraitPhilosophical, TraitPragmatic}

// Profile counts how often each trait was expressed. Counters only grow within
// a playthrough.
type Profile map[Trait]int

// NewProfile returns a profile with every trait at zero.
func NewProfile() Profile {
	p := make(Profile, len(Traits))
	for _, t := range Traits {
		p[t] = 0
	}
	return p
}

// Clone copies the profile.
func (p Profile) Clone() Profile {
	clone := make(Profile, len(p))
	for t, n := range p {
		clone[t] = n
	}
	return clone
}

// Tuning holds the scoring constants that gate the final phase.
type Tuning struct {
	FinalThreshold int // Rule (a): points needed to reach the final phase
	FastTurns      int // Rule (b): minimum turns for the fast-engagement shortcut
	FastPoints     int // Rule (b): minimum points for the fast-engagement shortcut
	MaxTurns       int // Rule (c): hard cap on exchanges
	FallbackLimit  int // Max options offered from the global pool
}

// DefaultTuning returns the shipped thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		FinalThreshold: 5,
		FastTurns:      2,
		FastPoints:     3,
		MaxTurns:       4,
		FallbackLimit:  4,
	}
}

// SanitizeTuning clamps values into a usable range.
func SanitizeTuning(t Tuning) Tuning {
	def := DefaultTuning()
	if t.FinalThreshold < 1 {
		t.FinalThreshold = def.FinalThreshold
	}
	if t.FastTurns < 1 {
		t.FastTurns = def.FastTurns
	}
	if t.FastPoints < 1 {
		t.FastPoints = def.FastPoints
	}
	if t.MaxTurns < 1 {
		t.MaxTurns = def.MaxTurns
	}
	if t.FallbackLimit < 1 {
		t.FallbackLimit = def.FallbackLimit
	}
	return t
}

// Progress is the scalar position of a conversation.
type Progress struct {
	Points int
	Turns  int
}

// ShouldEnterFinal applies rules (a), (b) and (c) after a choice. Thresholds (a)
// and (c) read the progress after the choice; the fast-engagement shortcut (b)
// reads the progress the player had when the choice was offered. Exhaustion (d)
// depends on content and is checked by the engine.
func (t Tuning) ShouldEnterFinal(before, after Progress) bool {
	switch {
	case after.Points >= t.FinalThreshold:
		return true
	case before.Turns >= t.FastTurns && before.Points >= t.FastPoints:
		return true
	case after.Turns >= t.MaxTurns:
		return true
	}
	return false
}

// PointsFor returns the award for a response key. Missing entries default to 1
// and non-positive entries are clamped to 1.
func (c *Content) PointsFor(key ResponseKey) int {
	value, ok := c.Points[key]
	if !ok || value < 1 {
		return 1
	}
	return value
}

// TraitFor returns the trait a response expresses, if any.
func (c *Content) TraitFor(key ResponseKey) (Trait, bool) {
	trait, ok := c.Traits[key]
	return trait, ok
}

// score applies a chosen option's points and trait to the state.
func (c *Content) score(s *State, key ResponseKey) {
	s.Points += c.PointsFor(key)
	if trait, ok := c.TraitFor(key); ok {
		s.Profile[trait]++
	}
}
