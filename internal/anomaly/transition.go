package anomaly

import (
	"sort"
	"strings"
)

// GroupedOption is a choice option together with the group it came from.
type GroupedOption struct {
	Group  GroupKey
	Option ChoiceOption
	Points int
}

// AvailableChoices computes the options to offer in the conversation phase.
//
//  1. Before any exchange, the unused options of the intro group.
//  2. Otherwise the unused options of the group matching the latest player line.
//  3. Without a usable match, the whole unused pool ordered by points, capped.
//
// An empty result means every option is used and the conversation must end.
// The evaluator is pure: it doesn't mutate state.
func (e *Engine) AvailableChoices(s *State) []GroupedOption {
	if len(s.History) < 2 {
		return e.unused(s, GroupIntro)
	}

	if key, ok := e.content.Classify(s.LastPlayerText()); ok {
		if options := e.unused(s, key); len(options) > 0 {
			return options
		}
	}

	return e.fallback(s)
}

// Classify maps a player line to a choice group using the topic rules.
func (c *Content) Classify(text string) (GroupKey, bool) {
	lower := strings.ToLower(text)
	for _, rule := range c.Topics {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Group, true
			}
		}
	}
	return "", false
}

func (e *Engine) unused(s *State, key GroupKey) []GroupedOption {
	group := e.content.Group(key)
	if group == nil {
		return nil
	}
	var out []GroupedOption
	for _, opt := range group.Options {
		if s.IsUsed(opt.Response) {
			continue
		}
		out = append(out, GroupedOption{Group: key, Option: opt, Points: e.content.PointsFor(opt.Response)})
	}
	return out
}

// fallback pools every unused option, highest value first. Ties keep script
// order so the result is deterministic.
func (e *Engine) fallback(s *State) []GroupedOption {
	var pool []GroupedOption
	for _, group := range e.content.Groups {
		pool = append(pool, e.unused(s, group.Key)...)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Points > pool[j].Points
	})
	if len(pool) > e.tuning.FallbackLimit {
		pool = pool[:e.tuning.FallbackLimit]
	}
	return pool
}
