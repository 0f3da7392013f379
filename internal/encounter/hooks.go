package encounter

import (
	"context"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/reward"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/typewriter"
)

// CueRouter receives the semantic events that drive sound effects. Calls are
// made with the session lock held and must not call back into the session.
type CueRouter interface {
	OnCharacterRevealed(line anomaly.Line, unit typewriter.Unit)
	OnLineEffect(line anomaly.Line)
	OnChoiceMade(choice anomaly.Choice)
	OnFinalReached()
}

// RewardIssuer fetches a reward token for a finished encounter.
type RewardIssuer interface {
	Issue(ctx context.Context, req reward.Request) (reward.Response, error)
}

// Observer is notified of session milestones.
type Observer interface {
	SessionStarted()
	ChoiceAccepted(choice anomaly.Choice, points int)
	FinalReached(progress anomaly.Progress)
	EndingSelected(ending anomaly.EndingKey, outcome anomaly.Outcome)
	RewardFetched(outcome anomaly.Outcome, issued bool, err error)
}

type noopCues struct{}

func (noopCues) OnCharacterRevealed(anomaly.Line, typewriter.Unit) {}
func (noopCues) OnLineEffect(anomaly.Line)                         {}
func (noopCues) OnChoiceMade(anomaly.Choice)                       {}
func (noopCues) OnFinalReached()                                   {}

type noopIssuer struct{}

func (noopIssuer) Issue(context.Context, reward.Request) (reward.Response, error) {
	return reward.Response{}, nil
}

type noopObserver struct{}

func (noopObserver) SessionStarted()                                   {}
func (noopObserver) ChoiceAccepted(anomaly.Choice, int)                {}
func (noopObserver) FinalReached(anomaly.Progress)                     {}
func (noopObserver) EndingSelected(anomaly.EndingKey, anomaly.Outcome) {}
func (noopObserver) RewardFetched(anomaly.Outcome, bool, error)        {}
