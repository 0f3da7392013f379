package anomaly

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a phase change skips or reverses the lifecycle.
	ErrInvalidTransition = errors.New("anomaly: invalid phase transition")
)

// Engine applies player choices to a State. It holds no per-session data, so a
// single Engine can drive any number of states.
type Engine struct {
	content *Content
	tuning  Tuning
}

// NewEngine creates an engine over the given content. Content is not validated
// here; gaps are handled by the documented fallback.
func NewEngine(content *Content, tuning Tuning) *Engine {
	return &Engine{content: content, tuning: SanitizeTuning(tuning)}
}

// Content returns the script the engine runs.
func (e *Engine) Content() *Content { return e.content }

// Tuning returns the thresholds in effect.
func (e *Engine) Tuning() Tuning { return e.tuning }

// IntroLines returns the opening lines played before the first offer.
func (e *Engine) IntroLines() []Line {
	if phase := e.content.Phase(IntroPhase); phase != nil {
		return phase.Lines
	}
	return nil
}

// Reply is what the player's choice produced.
type Reply struct {
	Choice Choice
	Lines  []Line // Response to reveal; nil when the script has no reply
	Points int    // Points awarded by this choice
}

// Begin moves a state out of the intro and makes the first offer.
func (e *Engine) Begin(s *State) error {
	if err := advance(s, PhaseConversation); err != nil {
		return err
	}
	e.offer(s)
	return nil
}

// Choose applies the offered choice with the given ID. Unknown IDs, used
// response keys and choices outside the conversation phase are ignored and
// leave the state unchanged.
func (e *Engine) Choose(s *State, id int) (Reply, bool) {
	if s.Phase != PhaseConversation {
		return Reply{}, false
	}
	choice, ok := findChoice(s.Offer, id)
	if !ok || choice.Key == "" || s.IsUsed(choice.Key) {
		return Reply{}, false
	}

	s.before = s.Progress()
	s.History = append(s.History, Entry{
		Speaker:  SpeakerPlayer,
		Text:     choice.Text,
		Mood:     choice.Mood,
		Response: choice.Key,
	})
	s.Used = append(s.Used, choice.Key)
	e.content.score(s, choice.Key)
	if choice.Mood != "" {
		s.Mood = choice.Mood
	}
	s.TurnCount++
	s.Offer = nil

	lines, found := e.content.Response(choice.Key)
	s.gap = !found
	return Reply{Choice: choice, Lines: lines, Points: s.Points - s.before.Points}, true
}

// Settle runs once the reply to the latest choice has been revealed. It either
// makes the next offer or moves the conversation to its final phase. It reports
// whether the final phase was entered.
func (e *Engine) Settle(s *State) bool {
	if s.Phase != PhaseConversation {
		return false
	}
	if s.gap || e.tuning.ShouldEnterFinal(s.before, s.Progress()) {
		e.enterFinal(s)
		return true
	}
	if !e.offer(s) {
		e.enterFinal(s)
		return true
	}
	return false
}

// FinalChoices returns the final choices whose conditions hold for the state.
func (e *Engine) FinalChoices(s *State) []FinalChoice {
	var out []FinalChoice
	for _, fc := range e.content.Finals {
		if eligible(fc, s) {
			out = append(out, fc)
		}
	}
	return out
}

// ChooseFinal selects an ending from the final offer. The returned ending is
// nil when the ID is unknown or the phase is wrong.
func (e *Engine) ChooseFinal(s *State, id int) (*Ending, bool) {
	if s.Phase != PhaseFinal {
		return nil, false
	}
	choice, ok := findChoice(s.Offer, id)
	if !ok || choice.Ending == "" {
		return nil, false
	}
	ending := e.content.Ending(choice.Ending)
	if ending == nil {
		return nil, false
	}
	if err := advance(s, PhaseEnded); err != nil {
		return nil, false
	}
	s.History = append(s.History, Entry{
		Speaker: SpeakerPlayer,
		Text:    choice.Text,
		Mood:    choice.Mood,
	})
	s.SelectedEnding = ending.Key
	s.Offer = nil
	return ending, true
}

func (e *Engine) enterFinal(s *State) {
	if err := advance(s, PhaseFinal); err != nil {
		return
	}
	finals := e.FinalChoices(s)
	s.Offer = make([]Choice, 0, len(finals))
	for i, fc := range finals {
		s.Offer = append(s.Offer, Choice{ID: i + 1, Text: fc.Text, Ending: fc.Ending})
	}
}

// offer stores the next set of regular choices. It returns false when nothing
// is left to offer.
func (e *Engine) offer(s *State) bool {
	options := e.AvailableChoices(s)
	s.Offer = make([]Choice, 0, len(options))
	for i, opt := range options {
		s.Offer = append(s.Offer, Choice{
			ID:    i + 1,
			Text:  opt.Option.Text,
			Mood:  opt.Option.Mood,
			Group: opt.Group,
			Key:   opt.Option.Response,
		})
	}
	return len(s.Offer) > 0
}

// advance moves the state to the next phase. Skipping or reversing is rejected.
func advance(s *State, to Phase) error {
	if s.Phase.next() != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, to)
	}
	s.Phase = to
	return nil
}

func findChoice(offer []Choice, id int) (Choice, bool) {
	for _, c := range offer {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// eligible evaluates a final choice condition. A panicking condition counts as
// eligible.
func eligible(fc FinalChoice, s *State) (ok bool) {
	if fc.Condition == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = true
		}
	}()
	used := append([]ResponseKey(nil), s.Used...)
	return fc.Condition(used, s.Profile.Clone())
}
