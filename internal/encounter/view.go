package encounter

import (
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

// Progress is the score shown against the final-phase threshold.
type Progress struct {
	Points    int `json:"points"`
	Threshold int `json:"threshold"`
}

// View is a read-only projection of a session for the host UI.
type View struct {
	ID          string            `json:"id"`
	Phase       anomaly.Phase     `json:"phase"`
	History     []anomaly.Entry   `json:"history"`
	Narration   []anomaly.Entry   `json:"narration"`
	Typing      string            `json:"typing"`
	TypingMood  anomaly.Mood      `json:"typing_mood,omitempty"`
	TypingVoice string            `json:"typing_voice,omitempty"`
	IsTyping    bool              `json:"is_typing"`
	Choices     []anomaly.Choice  `json:"choices"`
	Progress    Progress          `json:"progress"`
	Mood        anomaly.Mood      `json:"mood"`
	Profile     anomaly.Profile   `json:"profile"`
	Ending      anomaly.EndingKey `json:"ending,omitempty"`
	EndingTitle string            `json:"ending_title,omitempty"`
	Outcome     anomaly.Outcome   `json:"outcome,omitempty"`
	Complete    bool              `json:"complete"`
	RewardToken string            `json:"reward_token,omitempty"`
	Version     uint64            `json:"version"`
}

// View returns a snapshot of the session. Choices are only listed while no
// text is being revealed.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:       s.id,
		Version:  s.version,
		Progress: Progress{Threshold: s.engine.Tuning().FinalThreshold},
	}
	if s.state == nil {
		return v
	}

	state := s.state.Clone()
	v.Phase = state.Phase
	v.History = state.History
	v.Narration = append([]anomaly.Entry(nil), s.narration...)
	v.Progress.Points = state.Points
	v.Mood = state.Mood
	v.Profile = state.Profile
	v.IsTyping = s.busy()
	if !v.IsTyping {
		v.Choices = state.Offer
	}
	if s.typing != nil {
		v.Typing = s.seq.Revealed()
		v.TypingMood = s.typing.line.Mood
		v.TypingVoice = s.typing.line.Voice
	}
	if run := s.ending; run != nil {
		v.Ending = run.ending.Key
		v.EndingTitle = run.ending.Title
		v.Outcome = run.outcome
		v.Complete = run.complete
		v.RewardToken = run.token
	}
	return v
}
