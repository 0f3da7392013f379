package anomaly

// Phase is the position of a conversation in its lifecycle.
type Phase string

const (
	// PhaseIntro means the opening lines are still being revealed.
	PhaseIntro Phase = "intro"
	// PhaseConversation means regular choices are being exchanged.
	PhaseConversation Phase = "conversation"
	// PhaseFinal means only final choices are offered.
	PhaseFinal Phase = "final"
	// PhaseEnded means an ending was selected. Only a restart leaves this phase.
	PhaseEnded Phase = "ended"
)

// next returns the only phase reachable from p.
func (p Phase) next() Phase {
	switch p {
	case PhaseIntro:
		return PhaseConversation
	case PhaseConversation:
		return PhaseFinal
	case PhaseFinal:
		return PhaseEnded
	}
	return ""
}

// Entry is one message in the conversation history.
type Entry struct {
	Speaker  Speaker     `json:"speaker"`
	Text     string      `json:"text"`
	Mood     Mood        `json:"mood,omitempty"`
	Response ResponseKey `json:"response,omitempty"` // Player entries only
	Voice    string      `json:"voice,omitempty"`    // Entity lines spoken in another character's voice
}

// Choice is an option as offered to the player. IDs are positional and 1-based
// within the current offer.
type Choice struct {
	ID     int         `json:"id"`
	Text   string      `json:"text"`
	Mood   Mood        `json:"mood,omitempty"`
	Group  GroupKey    `json:"group,omitempty"`
	Key    ResponseKey `json:"response,omitempty"`
	Ending EndingKey   `json:"ending,omitempty"` // Final choices only
}

// State is the mutable root of one playthrough.
type State struct {
	Phase          Phase         `json:"phase"`
	History        []Entry       `json:"history"`         // Append-only, canonical chat order
	Used           []ResponseKey `json:"used"`            // Chosen response keys in order
	Points         int           `json:"points"`          // Never decreases
	Profile        Profile       `json:"profile"`         // Trait counters
	Mood           Mood          `json:"mood"`            // Mood of the latest choice
	TurnCount      int           `json:"turn_count"`      // Accepted regular choices
	Offer          []Choice      `json:"offer"`           // Choices currently on screen
	SelectedEnding EndingKey     `json:"selected_ending"` // Set only once ended

	gap    bool     // the latest response was missing from the script
	before Progress // progress when the latest choice was offered
}

// NewState creates a fresh state in the intro phase.
func NewState() *State {
	return &State{
		Phase:   PhaseIntro,
		Profile: NewProfile(),
		Mood:    MoodNeutral,
	}
}

// Progress returns the current points and turn count.
func (s *State) Progress() Progress {
	return Progress{Points: s.Points, Turns: s.TurnCount}
}

// IsUsed reports whether a response key was already chosen.
func (s *State) IsUsed(key ResponseKey) bool {
	for _, used := range s.Used {
		if used == key {
			return true
		}
	}
	return false
}

// PlayerEntries returns the player-authored history entries.
func (s *State) PlayerEntries() []Entry {
	var out []Entry
	for _, e := range s.History {
		if e.Speaker == SpeakerPlayer {
			out = append(out, e)
		}
	}
	return out
}

// LastPlayerText returns the text of the most recent player entry.
func (s *State) LastPlayerText() string {
	entries := s.PlayerEntries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Text
}

// AppendEntity records a fully revealed entity line.
func (s *State) AppendEntity(line Line) {
	mood := line.Mood
	if mood == "" {
		mood = s.Mood
	}
	s.History = append(s.History, Entry{
		Speaker: SpeakerEntity,
		Text:    line.Text,
		Mood:    mood,
		Voice:   line.Voice,
	})
}

// Clone creates a deep copy of the state for projection.
func (s *State) Clone() *State {
	clone := *s
	clone.History = append([]Entry(nil), s.History...)
	clone.Used = append([]ResponseKey(nil), s.Used...)
	clone.Offer = append([]Choice(nil), s.Offer...)
	clone.Profile = s.Profile.Clone()
	return &clone
}
