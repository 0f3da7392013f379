package encounter

import (
	"context"

	"go.uber.org/zap"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/reward"
)

// endingRun tracks the reveal of the selected ending and its one reward fetch.
type endingRun struct {
	ending   *anomaly.Ending
	outcome  anomaly.Outcome
	fetching bool   // request started; never restarted
	fetched  bool   // request concluded, with or without a token
	token    string // reward token, if one was issued
	complete bool   // everything that will be shown has been shown
}

// startEnding reveals the ending recorded in the state's SelectedEnding.
func (s *Session) startEnding() {
	ending, ok := s.engine.Resolve(s.state)
	if !ok {
		s.log.Warn("ended without a known ending",
			zap.String("ending", string(s.state.SelectedEnding)))
		return
	}
	outcome := s.engine.Content().OutcomeFor(ending.Key)
	s.ending = &endingRun{ending: ending, outcome: outcome}
	s.observer.EndingSelected(ending.Key, outcome)
	s.log.Info("ending selected",
		zap.String("ending", string(ending.Key)),
		zap.String("outcome", string(outcome)),
		zap.Int("points", s.state.Points))
	s.play(stepEnding, toNarration, ending.Lines)
}

// endingDrained runs whenever the ending's queued text runs out: first after
// the base lines, then after any reward lines.
func (s *Session) endingDrained() {
	run := s.ending
	if run == nil {
		return
	}
	if !run.fetching {
		s.fetchReward(run)
		return
	}
	if run.fetched {
		run.complete = true
	}
}

func (s *Session) fetchReward(run *endingRun) {
	run.fetching = true
	user := s.cfg.User
	if user == "" {
		user = s.id
	}
	req := reward.Request{
		IdentifyingPath: anomaly.RewardPath,
		User:            user,
		Score:           s.state.Points,
		Outcome:         run.outcome,
	}
	epoch := s.epoch
	issuer := s.issuer
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RewardTimeout)

	go func() {
		defer cancel()
		resp, err := issuer.Issue(ctx, req)
		s.rewardDone(epoch, resp.RewardToken, err)
	}()
}

func (s *Session) rewardDone(epoch uint64, token string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch || s.ending == nil {
		return
	}
	run := s.ending
	run.fetched = true
	s.version++
	s.observer.RewardFetched(run.outcome, err == nil && token != "", err)

	switch {
	case err != nil:
		s.log.Warn("reward fetch failed", zap.Error(err))
		run.complete = true
		return
	case token == "":
		s.log.Debug("no reward issued", zap.String("outcome", string(run.outcome)))
		run.complete = true
		return
	}

	run.token = token
	lines := anomaly.RewardLines(token)
	if run.complete {
		for _, line := range lines {
			s.record(queuedLine{line: s.withMood(line), sink: toNarration})
		}
		return
	}
	s.play(stepEnding, toNarration, lines)
}
