package anomaly

import "fmt"

// Outcome is the coarse classification of an ending reported to the reward issuer.
type Outcome string

const (
	OutcomeVictory  Outcome = "victory"  // crew saved or peace reached
	OutcomeSurvival Outcome = "survival" // the player got out, at a cost
	OutcomeDefeat   Outcome = "defeat"   // the anomaly won
)

// RewardPath identifies this encounter to the reward issuer.
const RewardPath = "/anomaly/final-encounter"

// OutcomeFor classifies an ending. Unknown endings count as defeat.
func (c *Content) OutcomeFor(key EndingKey) Outcome {
	if outcome, ok := c.Outcomes[key]; ok {
		return outcome
	}
	return OutcomeDefeat
}

// Resolve returns the ending recorded on a finished state.
func (e *Engine) Resolve(s *State) (*Ending, bool) {
	if s.Phase != PhaseEnded || s.SelectedEnding == "" {
		return nil, false
	}
	ending := e.content.Ending(s.SelectedEnding)
	return ending, ending != nil
}

// RewardLines are appended after an ending once the issuer returns a token.
func RewardLines(token string) []Line {
	return []Line{
		Pause(),
		Say("TRANSMISSION RECEIVED. Access credentials recovered from the core:"),
		Line{Kind: LineText, Text: fmt.Sprintf("> %s", token)},
	}
}
