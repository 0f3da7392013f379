package anomaly

import (
	"errors"
	"reflect"
	"testing"
)

// fixtureContent is a small script with explicit point values for scenario tests.
func fixtureContent() *Content {
	return &Content{
		Phases: map[PhaseKey]*DialoguePhase{
			IntroPhase: {Key: IntroPhase, Lines: []Line{Say("hello"), Pause(), Say("speak")}},
		},
		Groups: []*ChoiceGroup{
			{Key: GroupIntro, Options: []ChoiceOption{
				{ID: 1, Text: "plain one", Response: "a", Mood: MoodCurious},
				{ID: 2, Text: "plain two", Response: "b", Mood: MoodCold},
				{ID: 3, Text: "plain three", Response: "c"},
				{ID: 4, Text: "plain four", Response: "d"},
			}},
			{Key: GroupDirect, Options: []ChoiceOption{
				{ID: 1, Text: "plain five", Response: "e"},
				{ID: 2, Text: "plain six", Response: "f"},
			}},
			{Key: GroupEmpathy, Options: []ChoiceOption{
				{ID: 1, Text: "so lonely", Response: "g"},
				{ID: 2, Text: "high value", Response: "h"},
				{ID: 3, Text: "mid value", Response: "i"},
				{ID: 4, Text: "low value", Response: "j"},
				{ID: 5, Text: "tiny value", Response: "k"},
			}},
		},
		Responses: map[ResponseKey][]Line{
			"a": {Say("ra")}, "b": {Say("rb")}, "c": {Say("rc")}, "d": {Say("rd")},
			"e": {Say("re")}, "f": {Say("rf")}, "g": {Say("rg")}, "h": {Say("rh")},
			"i": {Say("ri")}, "j": {Say("rj")}, "k": {Say("rk")},
		},
		Finals: []FinalChoice{
			{ID: 1, Text: "join", Ending: EndingJoin},
			{ID: 2, Text: "restore", Ending: EndingRestoreCrew, Condition: func(used []ResponseKey, p Profile) bool {
				return p[TraitEmpathetic] >= 1
			}},
		},
		Endings: map[EndingKey]*Ending{
			EndingJoin:        {Key: EndingJoin, Title: "JOIN", Lines: []Line{Say("joined")}},
			EndingRestoreCrew: {Key: EndingRestoreCrew, Title: "RESTORE", Lines: []Line{Say("restored")}},
		},
		Points: map[ResponseKey]int{"a": 3, "b": 2, "h": 5, "i": 3, "j": 2, "k": 0},
		Traits: map[ResponseKey]Trait{"g": TraitEmpathetic, "c": TraitEmpathetic},
		Topics: []TopicRule{
			{Group: GroupEmpathy, Keywords: []string{"lonely"}},
			{Group: GroupDirect, Keywords: []string{"want from me"}},
		},
		Outcomes: map[EndingKey]Outcome{EndingRestoreCrew: OutcomeVictory},
	}
}

func begin(t *testing.T, c *Content) (*Engine, *State) {
	t.Helper()
	engine := NewEngine(c, DefaultTuning())
	state := NewState()
	if err := engine.Begin(state); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return engine, state
}

// choose picks the offered choice carrying the response key and settles it.
func choose(t *testing.T, e *Engine, s *State, key ResponseKey) Reply {
	t.Helper()
	for _, c := range s.Offer {
		if c.Key == key {
			reply, ok := e.Choose(s, c.ID)
			if !ok {
				t.Fatalf("Choose(%s) was rejected", key)
			}
			for _, line := range reply.Lines {
				s.AppendEntity(line)
			}
			e.Settle(s)
			return reply
		}
	}
	t.Fatalf("response %s not offered; offer=%v", key, s.Offer)
	return Reply{}
}

func offeredKeys(s *State) []ResponseKey {
	var keys []ResponseKey
	for _, c := range s.Offer {
		keys = append(keys, c.Key)
	}
	return keys
}

func TestDefaultContentValidates(t *testing.T) {
	if _, err := Load(DefaultContent()); err != nil {
		t.Fatalf("default content failed validation: %v", err)
	}
}

func TestValidateMissingResponse(t *testing.T) {
	c := fixtureContent()
	delete(c.Responses, "e")

	err := c.Validate()
	if !errors.Is(err, ErrMissingResponse) {
		t.Errorf("Expected ErrMissingResponse, got %v", err)
	}
}

func TestValidateDuplicateChoiceID(t *testing.T) {
	c := fixtureContent()
	c.Groups[1].Options[1].ID = 1

	if err := c.Validate(); !errors.Is(err, ErrDuplicateChoice) {
		t.Errorf("Expected ErrDuplicateChoice, got %v", err)
	}
}

func TestValidateMissingEnding(t *testing.T) {
	c := fixtureContent()
	delete(c.Endings, EndingJoin)

	if err := c.Validate(); !errors.Is(err, ErrMissingEnding) {
		t.Errorf("Expected ErrMissingEnding, got %v", err)
	}
}

func TestValidateTopicUnknownGroup(t *testing.T) {
	c := fixtureContent()
	c.Topics = append(c.Topics, TopicRule{Group: GroupAccusation, Keywords: []string{"crew"}})

	if err := c.Validate(); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("Expected ErrUnknownGroup, got %v", err)
	}
}

func TestBeginOffersIntroGroup(t *testing.T) {
	_, s := begin(t, fixtureContent())

	if s.Phase != PhaseConversation {
		t.Fatalf("Expected conversation phase, got %s", s.Phase)
	}
	want := []ResponseKey{"a", "b", "c", "d"}
	if got := offeredKeys(s); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	for i, c := range s.Offer {
		if c.ID != i+1 {
			t.Errorf("Expected positional id %d, got %d", i+1, c.ID)
		}
	}
}

// Scenario A: 3 + 2 points reaches the threshold on the second choice.
func TestThresholdReachedOnSecondChoice(t *testing.T) {
	e, s := begin(t, fixtureContent())

	choose(t, e, s, "a")
	if s.Phase != PhaseConversation {
		t.Fatalf("Expected conversation after first choice, got %s", s.Phase)
	}
	choose(t, e, s, "b")
	if s.Phase != PhaseFinal {
		t.Fatalf("Expected final after second choice, got %s", s.Phase)
	}
	if s.Points != 5 || s.TurnCount != 2 {
		t.Errorf("Expected points=5 turns=2, got points=%d turns=%d", s.Points, s.TurnCount)
	}
}

// Scenario B: four one-point choices hit the turn cap.
func TestTurnCapReachedOnFourthChoice(t *testing.T) {
	c := fixtureContent()
	c.Points = nil
	e, s := begin(t, c)

	for i, key := range []ResponseKey{"c", "d", "e", "f"} {
		if s.Phase != PhaseConversation {
			t.Fatalf("Expected conversation before choice %d, got %s", i+1, s.Phase)
		}
		if s.Offer == nil {
			t.Fatalf("No offer before choice %d", i+1)
		}
		choose(t, e, s, key)
	}
	if s.Phase != PhaseFinal {
		t.Fatalf("Expected final after fourth choice, got %s", s.Phase)
	}
	if s.Points != 4 || s.TurnCount != 4 {
		t.Errorf("Expected points=4 turns=4, got points=%d turns=%d", s.Points, s.TurnCount)
	}
}

func TestFastEngagementShortcut(t *testing.T) {
	tuning := Tuning{FinalThreshold: 100, FastTurns: 2, FastPoints: 3, MaxTurns: 100}
	if tuning.ShouldEnterFinal(Progress{Points: 2, Turns: 1}, Progress{Points: 3, Turns: 2}) {
		t.Error("shortcut should not fire before two completed turns")
	}
	if !tuning.ShouldEnterFinal(Progress{Points: 3, Turns: 2}, Progress{Points: 4, Turns: 3}) {
		t.Error("shortcut should fire once two turns and three points were banked")
	}
	if tuning.ShouldEnterFinal(Progress{Points: 2, Turns: 1}, Progress{Points: 4, Turns: 2}) {
		t.Error("shortcut should read progress from before the choice")
	}
}

// Scenario C: intro and direct exhausted, no keyword in the last line.
func TestFallbackPoolSortedByPoints(t *testing.T) {
	c := fixtureContent()
	e := NewEngine(c, Tuning{FinalThreshold: 100, FastTurns: 100, FastPoints: 100, MaxTurns: 100})
	s := NewState()
	if err := e.Begin(s); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for _, key := range []ResponseKey{"a", "b", "c", "d", "e", "f"} {
		choose(t, e, s, key)
	}

	if s.Phase != PhaseConversation {
		t.Fatalf("Expected conversation, got %s", s.Phase)
	}
	want := []ResponseKey{"h", "i", "j", "g"}
	if got := offeredKeys(s); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected fallback %v, got %v", want, got)
	}
	if len(s.Offer) > 4 {
		t.Errorf("Expected at most 4 fallback options, got %d", len(s.Offer))
	}
}

func TestKeywordRoutesToGroup(t *testing.T) {
	c := fixtureContent()
	c.Groups[0].Options[0].Text = "you seem lonely"
	e, s := begin(t, c)

	choose(t, e, s, "a")

	for _, choice := range s.Offer {
		if choice.Group != GroupEmpathy {
			t.Errorf("Expected empathy options, got %s from %s", choice.Key, choice.Group)
		}
	}
}

func TestExhaustionForcesFinal(t *testing.T) {
	c := &Content{
		Phases:    map[PhaseKey]*DialoguePhase{IntroPhase: {Key: IntroPhase}},
		Groups:    []*ChoiceGroup{{Key: GroupIntro, Options: []ChoiceOption{{ID: 1, Text: "only", Response: "x"}}}},
		Responses: map[ResponseKey][]Line{"x": {Say("rx")}},
		Finals:    []FinalChoice{{ID: 1, Text: "join", Ending: EndingJoin}},
		Endings:   map[EndingKey]*Ending{EndingJoin: {Key: EndingJoin}},
	}
	e, s := begin(t, c)

	choose(t, e, s, "x")

	if s.Phase != PhaseFinal {
		t.Errorf("Expected final after exhausting every option, got %s", s.Phase)
	}
}

func TestContentGapForcesFinal(t *testing.T) {
	c := fixtureContent()
	delete(c.Responses, "c")
	e, s := begin(t, c)

	reply := choose(t, e, s, "c")

	if reply.Lines != nil {
		t.Errorf("Expected no reply lines for a gap, got %v", reply.Lines)
	}
	if s.Phase != PhaseFinal {
		t.Errorf("Expected final after a content gap, got %s", s.Phase)
	}
}

func TestDuplicateChoiceIsNoOp(t *testing.T) {
	e, s := begin(t, fixtureContent())
	id := s.Offer[2].ID

	if _, ok := e.Choose(s, id); !ok {
		t.Fatal("first choice rejected")
	}
	before := s.Clone()
	if _, ok := e.Choose(s, id); ok {
		t.Error("repeated choice should be ignored")
	}
	if !reflect.DeepEqual(before, s) {
		t.Error("state changed after an ignored choice")
	}
}

func TestStaleOfferCannotDoubleScore(t *testing.T) {
	e, s := begin(t, fixtureContent())
	stale := append([]Choice(nil), s.Offer...)

	choose(t, e, s, "c")
	s.Offer = stale
	if _, ok := e.Choose(s, 3); ok {
		t.Error("used response key accepted from a stale offer")
	}
	if s.Points != 1 {
		t.Errorf("Expected 1 point, got %d", s.Points)
	}
}

func TestUnknownChoiceIgnored(t *testing.T) {
	e, s := begin(t, fixtureContent())

	if _, ok := e.Choose(s, 99); ok {
		t.Error("unknown id accepted")
	}
	if s.TurnCount != 0 || len(s.History) != 0 {
		t.Error("state changed after unknown id")
	}
}

func TestNonPositivePointsClamped(t *testing.T) {
	c := fixtureContent()
	c.Points["c"] = -4

	if got := c.PointsFor("c"); got != 1 {
		t.Errorf("Expected clamped value 1, got %d", got)
	}
	if got := c.PointsFor("k"); got != 1 {
		t.Errorf("Expected clamped value 1 for zero, got %d", got)
	}
	if got := c.PointsFor("unlisted"); got != 1 {
		t.Errorf("Expected default value 1, got %d", got)
	}
}

func TestUnmappedTraitLeavesProfile(t *testing.T) {
	e, s := begin(t, fixtureContent())

	choose(t, e, s, "d")

	if !reflect.DeepEqual(s.Profile, NewProfile()) {
		t.Errorf("Expected untouched profile, got %v", s.Profile)
	}
}

// Scenario D: the empathetic condition gates the restore ending.
func TestFinalChoiceConditionUsesProfile(t *testing.T) {
	e := NewEngine(fixtureContent(), DefaultTuning())
	s := NewState()

	if finals := e.FinalChoices(s); len(finals) != 1 || finals[0].Ending != EndingJoin {
		t.Fatalf("Expected only join with an empty profile, got %v", finals)
	}

	s.Profile[TraitEmpathetic] = 1
	finals := e.FinalChoices(s)
	if len(finals) != 2 || finals[1].Ending != EndingRestoreCrew {
		t.Errorf("Expected restore_crew after an empathetic choice, got %v", finals)
	}
}

func TestEmpatheticChoiceUnlocksEnding(t *testing.T) {
	e, s := begin(t, fixtureContent())

	choose(t, e, s, "c")
	choose(t, e, s, "h")
	if s.Phase != PhaseFinal {
		t.Fatalf("Expected final, got %s", s.Phase)
	}

	found := false
	for _, c := range s.Offer {
		if c.Ending == EndingRestoreCrew {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected restore_crew in final offer, got %v", s.Offer)
	}
}

func TestPanickingConditionIsEligible(t *testing.T) {
	c := fixtureContent()
	c.Finals = append(c.Finals, FinalChoice{ID: 3, Text: "boom", Ending: EndingJoin, Condition: func([]ResponseKey, Profile) bool {
		var p Profile
		p[TraitPragmatic] = 1
		return false
	}})
	e := NewEngine(c, DefaultTuning())

	finals := e.FinalChoices(NewState())
	if len(finals) != 2 || finals[1].ID != 3 {
		t.Errorf("Expected panicking condition to default to eligible, got %v", finals)
	}
}

func TestPhaseOrder(t *testing.T) {
	e, s := begin(t, fixtureContent())
	phases := []Phase{PhaseIntro, s.Phase}

	choose(t, e, s, "a")
	choose(t, e, s, "b")
	phases = append(phases, s.Phase)

	ending, ok := e.ChooseFinal(s, 1)
	if !ok {
		t.Fatal("ChooseFinal rejected")
	}
	phases = append(phases, s.Phase)

	want := []Phase{PhaseIntro, PhaseConversation, PhaseFinal, PhaseEnded}
	if !reflect.DeepEqual(phases, want) {
		t.Errorf("Expected %v, got %v", want, phases)
	}
	if s.SelectedEnding != ending.Key {
		t.Errorf("Expected selected ending %s, got %s", ending.Key, s.SelectedEnding)
	}
	if err := e.Begin(s); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on reversed transition, got %v", err)
	}
}

func TestResolveReadsSelectedEnding(t *testing.T) {
	e, s := begin(t, fixtureContent())
	if _, ok := e.Resolve(s); ok {
		t.Error("Resolve succeeded before an ending was chosen")
	}

	choose(t, e, s, "a")
	choose(t, e, s, "b")
	if _, ok := e.Resolve(s); ok {
		t.Error("Resolve succeeded during the final choice")
	}
	chosen, ok := e.ChooseFinal(s, 1)
	if !ok {
		t.Fatal("ChooseFinal rejected")
	}

	got, ok := e.Resolve(s)
	if !ok {
		t.Fatal("Resolve failed after the final choice")
	}
	if got != chosen {
		t.Errorf("Expected ending %s, got %s", chosen.Key, got.Key)
	}

	s.SelectedEnding = "missing"
	if _, ok := e.Resolve(s); ok {
		t.Error("Resolve accepted an unknown ending")
	}
}

func TestChooseFinalRejectedOutsideFinal(t *testing.T) {
	e, s := begin(t, fixtureContent())

	if _, ok := e.ChooseFinal(s, 1); ok {
		t.Error("final choice accepted during conversation")
	}
	if s.Phase != PhaseConversation {
		t.Errorf("Expected conversation, got %s", s.Phase)
	}
}

func TestDeterministicPlaythrough(t *testing.T) {
	play := func() *State {
		e := NewEngine(DefaultContent(), DefaultTuning())
		s := NewState()
		if err := e.Begin(s); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		for s.Phase == PhaseConversation {
			reply, ok := e.Choose(s, 1)
			if !ok {
				t.Fatal("choice 1 rejected")
			}
			for _, line := range reply.Lines {
				s.AppendEntity(line)
			}
			e.Settle(s)
		}
		if _, ok := e.ChooseFinal(s, 1); !ok {
			t.Fatal("final choice 1 rejected")
		}
		return s
	}

	first, second := play(), play()
	if !reflect.DeepEqual(first, second) {
		t.Error("identical choice sequences produced different states")
	}
}

func TestPointsMonotonicAndKeysUnique(t *testing.T) {
	e := NewEngine(DefaultContent(), Tuning{FinalThreshold: 1000, FastTurns: 1000, FastPoints: 1000, MaxTurns: 1000})
	s := NewState()
	if err := e.Begin(s); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	last := 0
	for s.Phase == PhaseConversation {
		id := len(s.Offer)
		_, ok := e.Choose(s, id)
		if !ok {
			t.Fatalf("choice %d rejected", id)
		}
		// hammer the same id again before settling
		e.Choose(s, id)
		if s.Points-last < 1 {
			t.Fatalf("Expected increment >= 1, got %d", s.Points-last)
		}
		last = s.Points
		e.Settle(s)
	}

	seen := map[ResponseKey]bool{}
	for _, entry := range s.PlayerEntries() {
		if seen[entry.Response] {
			t.Errorf("response %s recorded twice", entry.Response)
		}
		seen[entry.Response] = true
	}
	if len(seen) != 16 {
		t.Errorf("Expected all 16 options used before exhaustion, got %d", len(seen))
	}
}

func TestDefaultScriptRouting(t *testing.T) {
	c := DefaultContent()
	cases := map[string]GroupKey{
		"Who are you? Are you conscious?":         GroupAwakening,
		"Where is the crew? Did you kill them?":   GroupAccusation,
		"You sound lonely out here.":              GroupEmpathy,
		"Cut the act. What do you want from me?": GroupDirect,
	}
	for text, want := range cases {
		got, ok := c.Classify(text)
		if !ok || got != want {
			t.Errorf("Classify(%q): expected %s, got %s", text, want, got)
		}
	}
	if _, ok := c.Classify("Loneliness is the price of being unique."); ok {
		t.Error("expected no topic match")
	}
}

func TestOutcomeFor(t *testing.T) {
	c := DefaultContent()
	if got := c.OutcomeFor(EndingRestoreCrew); got != OutcomeVictory {
		t.Errorf("Expected victory, got %s", got)
	}
	if got := c.OutcomeFor("unknown"); got != OutcomeDefeat {
		t.Errorf("Expected defeat for unknown ending, got %s", got)
	}
}
