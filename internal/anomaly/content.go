// Package anomaly implements the conversation engine behind the anomaly
// encounter: the declarative content store, scoring, the phase state machine,
// and ending resolution.
//
// All transitions are pure with respect to (content, tuning, state). Timing,
// audio and network effects live in the encounter package.
package anomaly

import (
	"errors"
	"fmt"
)

// PhaseKey identifies a block of narrative lines.
type PhaseKey string

// GroupKey identifies a named set of choice options.
type GroupKey string

// ResponseKey links a choice option to its reply, score and trait.
type ResponseKey string

// EndingKey identifies one of the fixed endings.
type EndingKey string

const (
	IntroPhase PhaseKey = "intro"

	GroupIntro      GroupKey = "intro"
	GroupAwakening  GroupKey = "awakening"
	GroupAccusation GroupKey = "accusation"
	GroupEmpathy    GroupKey = "empathy"
	GroupDirect     GroupKey = "direct"

	EndingJoin        EndingKey = "join"
	EndingResist      EndingKey = "resist"
	EndingRestoreCrew EndingKey = "restore_crew"
	EndingCoexistence EndingKey = "coexistence"
)

// DialoguePhase is an immutable ordered sequence of lines.
type DialoguePhase struct {
	Key   PhaseKey
	Lines []Line
}

// ChoiceOption is a player response inside a choice group.
type ChoiceOption struct {
	ID       int         // 1-based, unique within its group
	Text     string      // Shown to the player and recorded in history
	Response ResponseKey // Reply, points and trait lookup key
	Mood     Mood
}

// ChoiceGroup is a named set of options relevant to a prior topic.
type ChoiceGroup struct {
	Key     GroupKey
	Options []ChoiceOption
}

// Condition decides whether a final choice is eligible. It receives the
// ordered response keys chosen so far and the current profile.
type Condition func(used []ResponseKey, profile Profile) bool

// FinalChoice is offered once the conversation reaches its final phase.
type FinalChoice struct {
	ID        int
	Text      string
	Ending    EndingKey
	Condition Condition // nil = always eligible
}

// Ending is a terminal narrative outcome.
type Ending struct {
	Key   EndingKey
	Title string
	Lines []Line
}

// TopicRule routes a player line to a choice group when any keyword appears in it.
type TopicRule struct {
	Group    GroupKey
	Keywords []string
}

// Content is the static dialogue script. It is never mutated after load.
type Content struct {
	Phases    map[PhaseKey]*DialoguePhase
	Groups    []*ChoiceGroup // Ordered; fallback pooling walks groups in this order
	Responses map[ResponseKey][]Line
	Finals    []FinalChoice
	Endings   map[EndingKey]*Ending
	Points    map[ResponseKey]int   // Missing keys score 1
	Traits    map[ResponseKey]Trait // Missing keys leave the profile unchanged
	Topics    []TopicRule           // Evaluated in order, first match wins
	Outcomes  map[EndingKey]Outcome // Coarse classification sent to the reward issuer
}

var (
	// ErrMissingPhase is returned when a required phase is not defined.
	ErrMissingPhase = errors.New("anomaly: phase not defined")
	// ErrUnknownGroup is returned when a group or topic references a group that doesn't exist.
	ErrUnknownGroup = errors.New("anomaly: choice group not defined")
	// ErrMissingResponse is returned when an option references a response that doesn't exist.
	ErrMissingResponse = errors.New("anomaly: response not defined")
	// ErrMissingEnding is returned when a final choice references an ending that doesn't exist.
	ErrMissingEnding = errors.New("anomaly: ending not defined")
	// ErrDuplicateChoice is returned when option IDs are not 1-based and unique within a group.
	ErrDuplicateChoice = errors.New("anomaly: invalid choice id")
)

// Load validates the content and returns it. The server calls this at boot so a
// broken cross-reference fails startup instead of surfacing mid-conversation.
func Load(c *Content) (*Content, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every cross-reference in the script.
func (c *Content) Validate() error {
	if c.Phase(IntroPhase) == nil {
		return fmt.Errorf("%w: %s", ErrMissingPhase, IntroPhase)
	}
	if c.Group(GroupIntro) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, GroupIntro)
	}

	seenGroups := make(map[GroupKey]bool)
	for _, group := range c.Groups {
		if seenGroups[group.Key] {
			return fmt.Errorf("%w: group %s defined twice", ErrUnknownGroup, group.Key)
		}
		seenGroups[group.Key] = true

		ids := make(map[int]bool)
		for _, opt := range group.Options {
			if opt.ID < 1 || ids[opt.ID] {
				return fmt.Errorf("%w: group %s option %d", ErrDuplicateChoice, group.Key, opt.ID)
			}
			ids[opt.ID] = true
			if _, ok := c.Responses[opt.Response]; !ok {
				return fmt.Errorf("%w: group %s option %d references %s", ErrMissingResponse, group.Key, opt.ID, opt.Response)
			}
		}
	}

	for _, rule := range c.Topics {
		if !seenGroups[rule.Group] {
			return fmt.Errorf("%w: topic rule references %s", ErrUnknownGroup, rule.Group)
		}
	}

	finalIDs := make(map[int]bool)
	for _, fc := range c.Finals {
		if fc.ID < 1 || finalIDs[fc.ID] {
			return fmt.Errorf("%w: final choice %d", ErrDuplicateChoice, fc.ID)
		}
		finalIDs[fc.ID] = true
		if c.Ending(fc.Ending) == nil {
			return fmt.Errorf("%w: final choice %d references %s", ErrMissingEnding, fc.ID, fc.Ending)
		}
	}

	return nil
}

// Phase returns a phase by key, or nil if not found.
func (c *Content) Phase(key PhaseKey) *DialoguePhase {
	return c.Phases[key]
}

// Group returns a choice group by key, or nil if not found.
func (c *Content) Group(key GroupKey) *ChoiceGroup {
	for _, group := range c.Groups {
		if group.Key == key {
			return group
		}
	}
	return nil
}

// Response returns the reply lines for a key. ok is false for a content gap.
func (c *Content) Response(key ResponseKey) (lines []Line, ok bool) {
	lines, ok = c.Responses[key]
	return lines, ok
}

// Ending returns an ending by key, or nil if not found.
func (c *Content) Ending(key EndingKey) *Ending {
	return c.Endings[key]
}
