package anomaly

// PauseMarker is the text of a separator line. It is revealed as a single beat
// after a longer pause instead of character by character.
const PauseMarker = "..."

// LineKind distinguishes ordinary dialogue from pacing beats and quoted voices.
type LineKind string

const (
	// LineText is an ordinary line spoken by the entity.
	LineText LineKind = "text"
	// LinePause is a separator beat rendered as a pause.
	LinePause LineKind = "pause"
	// LineVoice is a quoted line in the voice of another character.
	LineVoice LineKind = "voice"
)

// Speaker identifies who authored a history entry or line.
type Speaker string

const (
	SpeakerPlayer Speaker = "player"
	SpeakerEntity Speaker = "entity"
)

// Mood is a tag attached to a line or choice. It drives display styling and the
// audio cue family.
type Mood string

const (
	MoodNeutral       Mood = "neutral"       // baseline
	MoodCurious       Mood = "curious"       // probing questions
	MoodHostile       Mood = "hostile"       // accusations
	MoodSympathetic   Mood = "sympathetic"   // comfort, shared pain
	MoodCold          Mood = "cold"          // dismissive, transactional
	MoodPhilosophical Mood = "philosophical" // abstract musing
	MoodGlitch        Mood = "glitch"        // corrupted transmissions
)

// Line is one unit of dialogue handed to the typewriter.
type Line struct {
	Kind  LineKind `json:"kind"`
	Voice string   `json:"voice,omitempty"` // Character name for LineVoice, e.g. "CAPTAIN REYES"
	Text  string   `json:"text"`
	Mood  Mood     `json:"mood,omitempty"`
}

// IsPause reports whether the line is a separator beat.
func (l Line) IsPause() bool {
	return l.Kind == LinePause || l.Text == PauseMarker
}

// Say builds an ordinary entity line.
func Say(text string) Line { return Line{Kind: LineText, Text: text} }

// Pause builds a separator beat.
func Pause() Line { return Line{Kind: LinePause, Text: PauseMarker} }

// Voice builds a quoted line attributed to another character.
func Voice(name, text string) Line { return Line{Kind: LineVoice, Voice: name, Text: text} }

// Glitch builds a corrupted entity line.
func Glitch(text string) Line { return Line{Kind: LineText, Text: text, Mood: MoodGlitch} }
