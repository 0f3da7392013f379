package server

import (
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/cues"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/encounter"
)

type entryDTO struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Mood    string `json:"mood,omitempty"`
	Voice   string `json:"voice,omitempty"`
}

type choiceDTO struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Mood string `json:"mood,omitempty"`
}

type progressDTO struct {
	Points    int `json:"points"`
	Threshold int `json:"threshold"`
}

type endingDTO struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Outcome     string `json:"outcome"`
	Complete    bool   `json:"complete"`
	RewardToken string `json:"reward_token,omitempty"`
}

// stateMsg is the read-only projection pushed to the host UI.
type stateMsg struct {
	Type                string         `json:"type"`
	Session             string         `json:"session"`
	Phase               string         `json:"phase"`
	History             []entryDTO     `json:"history"`
	Narration           []entryDTO     `json:"narration"`
	CurrentlyTypingText string         `json:"currentlyTypingText"`
	TypingMood          string         `json:"typingMood,omitempty"`
	TypingVoice         string         `json:"typingVoice,omitempty"`
	IsTyping            bool           `json:"isTyping"`
	AvailableChoices    []choiceDTO    `json:"availableChoices"`
	Progress            progressDTO    `json:"progress"`
	Mood                string         `json:"mood"`
	Profile             map[string]int `json:"profile"`
	Ending              *endingDTO     `json:"ending,omitempty"`
}

type cueMsg struct {
	Type  string `json:"type"`
	Sound string `json:"sound"`
	Mood  string `json:"mood,omitempty"`
}

func entriesToDTO(entries []anomaly.Entry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryDTO{
			Speaker: string(e.Speaker),
			Text:    e.Text,
			Mood:    string(e.Mood),
			Voice:   e.Voice,
		})
	}
	return out
}

func choicesToDTO(choices []anomaly.Choice) []choiceDTO {
	out := make([]choiceDTO, 0, len(choices))
	for _, c := range choices {
		out = append(out, choiceDTO{ID: c.ID, Text: c.Text, Mood: string(c.Mood)})
	}
	return out
}

func viewToState(v encounter.View) stateMsg {
	msg := stateMsg{
		Type:                "state",
		Session:             v.ID,
		Phase:               string(v.Phase),
		History:             entriesToDTO(v.History),
		Narration:           entriesToDTO(v.Narration),
		CurrentlyTypingText: v.Typing,
		TypingMood:          string(v.TypingMood),
		TypingVoice:         v.TypingVoice,
		IsTyping:            v.IsTyping,
		AvailableChoices:    choicesToDTO(v.Choices),
		Progress:            progressDTO{Points: v.Progress.Points, Threshold: v.Progress.Threshold},
		Mood:                string(v.Mood),
		Profile:             map[string]int{},
	}
	for trait, n := range v.Profile {
		msg.Profile[string(trait)] = n
	}
	if v.Ending != "" {
		msg.Ending = &endingDTO{
			Key:         string(v.Ending),
			Title:       v.EndingTitle,
			Outcome:     string(v.Outcome),
			Complete:    v.Complete,
			RewardToken: v.RewardToken,
		}
	}
	return msg
}

func cueToMsg(c cues.Cue) cueMsg {
	return cueMsg{Type: "cue", Sound: string(c.Sound), Mood: string(c.Mood)}
}
