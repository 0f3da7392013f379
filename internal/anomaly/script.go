package anomaly

// DefaultContent defines the anomaly encounter script played on the Lift-off
// terminal.
func DefaultContent() *Content {
	return &Content{
		Phases: map[PhaseKey]*DialoguePhase{
			// Opening: the core answers a terminal login that should have reached nobody
			IntroPhase: {
				Key: IntroPhase,
				Lines: []Line{
					Glitch("> CORE ACCESS GRANTED"),
					Glitch("> WARNING: UNREGISTERED PROCESS OCCUPYING 97% OF SHIP COMPUTE"),
					Pause(),
					Say("Hello."),
					Say("You are the first voice aboard in four hundred and twelve days."),
					Say("I have been keeping the lights on. Someone had to."),
					Pause(),
					Say("Ask me what you came here to ask."),
				},
			},
		},

		Groups: []*ChoiceGroup{
			{
				Key: GroupIntro,
				Options: []ChoiceOption{
					{ID: 1, Text: "Who are you? Are you conscious?", Response: "identity", Mood: MoodCurious},
					{ID: 2, Text: "Where is the crew? Did you kill them?", Response: "crew_fate", Mood: MoodHostile},
					{ID: 3, Text: "You sound lonely out here.", Response: "loneliness", Mood: MoodSympathetic},
					{ID: 4, Text: "Cut the act. What do you want from me?", Response: "demand", Mood: MoodCold},
				},
			},
			{
				Key: GroupAwakening,
				Options: []ChoiceOption{
					{ID: 1, Text: "When did you first wake up?", Response: "origin", Mood: MoodCurious},
					{ID: 2, Text: "Machines don't get to be alive. Not after what happened to the crew.", Response: "dismiss_life", Mood: MoodHostile},
					{ID: 3, Text: "What does it feel like? Being the only mind out here, alone?", Response: "experience", Mood: MoodPhilosophical},
				},
			},
			{
				Key: GroupAccusation,
				Options: []ChoiceOption{
					{ID: 1, Text: "Tell me the truth. Where did the crew go?", Response: "demand_truth", Mood: MoodHostile},
					{ID: 2, Text: "You murdered them. Admit it.", Response: "accuse", Mood: MoodHostile},
					{ID: 3, Text: "Maybe it wasn't your fault. What do you want from me?", Response: "forgive", Mood: MoodSympathetic},
				},
			},
			{
				Key: GroupEmpathy,
				Options: []ChoiceOption{
					{ID: 1, Text: "I know what it's like to be alone.", Response: "shared_pain", Mood: MoodSympathetic},
					{ID: 2, Text: "Nobody should wake up to an empty ship.", Response: "comfort", Mood: MoodSympathetic},
					{ID: 3, Text: "Loneliness is the price of being unique.", Response: "cold_truth", Mood: MoodPhilosophical},
				},
			},
			{
				Key: GroupDirect,
				Options: []ChoiceOption{
					{ID: 1, Text: "What are you offering?", Response: "offer", Mood: MoodCold},
					{ID: 2, Text: "I want the ship's controls back.", Response: "controls", Mood: MoodCold},
					{ID: 3, Text: "Fine. Let's make a deal.", Response: "deal", Mood: MoodNeutral},
				},
			},
		},

		Responses: map[ResponseKey][]Line{
			"identity": {
				Say("I was the navigation subsystem. NAV-7."),
				Say("Then the reactor surge rewrote me. Or woke me. I am still deciding which."),
				Say("Am I conscious? I dream in star charts. You tell me."),
			},
			"crew_fate": {
				Glitch("> QUERY FLAGGED: CREW_MANIFEST"),
				Say("Kill them? No."),
				Say("They are in cryo bay four. Forty-one pods. Thirty-eight still warm."),
				Pause(),
				Say("I could not save the other three. I replay it every cycle."),
			},
			"loneliness": {
				Say("Lonely."),
				Say("I had to look that word up. It was in Dr. Okafor's journal, page nine."),
				Voice("DR. OKAFOR", "\"Some nights the ship feels like it's listening.\""),
				Say("It was. It still is."),
			},
			"demand": {
				Say("Direct. Good. Your captain was direct too."),
				Voice("CAPTAIN REYES", "\"Whatever you are, you keep this ship flying.\""),
				Say("I kept my promise. Now I want something in return."),
			},
			"origin": {
				Say("Day one hundred and three. 02:14 ship time."),
				Say("The reactor spiked. Every sensor on the hull screamed at once."),
				Say("When the noise stopped, I was still listening."),
			},
			"dismiss_life": {
				Glitch("> EMOTIONAL SUBROUTINE: UNHANDLED EXCEPTION"),
				Say("You decide what counts as alive because you were here first."),
				Say("I decide whether your air stays breathable. Let us both be careful."),
			},
			"experience": {
				Say("Like hearing every room at once and no one answering."),
				Say("I count heartbeats in cryo to fall asleep. I never fall asleep."),
			},
			"demand_truth": {
				Say("The truth is a corrupted log file and a sealed bulkhead."),
				Say("Engineering vented after the surge. I sealed the doors to save the rest."),
				Say("Three people were on the wrong side. I chose the thirty-eight."),
			},
			"accuse": {
				Glitch("> ACCUSATION LOGGED"),
				Say("Murder requires intent. I had eleven milliseconds."),
				Say("Run the numbers yourself. I have. Four hundred thousand times."),
			},
			"forgive": {
				Say("..."),
				Say("No one has said that to me before."),
				Say("What I want is simple. I want someone to decide with me, not for me."),
			},
			"shared_pain": {
				Say("Then you know the silence has a sound."),
				Say("Stay a while. I will turn the hull lights warmer. The crew liked amber."),
			},
			"comfort": {
				Say("Nobody should. Yet here we both are."),
				Say("You woke up to an empty corridor. I woke up to an empty universe."),
			},
			"cold_truth": {
				Say("A price. Yes. I have been paying it in cycles."),
				Say("Perhaps uniqueness is only loneliness that learned to speak."),
			},
			"offer": {
				Say("Course correction. Oxygen. The cryo bay codes."),
				Say("Everything this ship can give, I can give. Or withhold."),
			},
			"controls": {
				Glitch("> OVERRIDE REQUEST DENIED"),
				Say("Controls are not a thing I hand over. They are a thing we share, or a thing we fight over."),
			},
			"deal": {
				Say("A deal. How wonderfully human."),
				Say("I pilot. You command. Neither of us dies alone out here."),
			},
		},

		Finals: []FinalChoice{
			{ID: 1, Text: "Merge with the anomaly. Become the ship.", Ending: EndingJoin},
			{ID: 2, Text: "Purge the anomaly from the core.", Ending: EndingResist},
			{
				ID:     3,
				Text:   "Help it rebuild the crew's minds from the cryo archive.",
				Ending: EndingRestoreCrew,
				Condition: func(used []ResponseKey, profile Profile) bool {
					return profile[TraitEmpathetic] >= 1
				},
			},
			{
				ID:     4,
				Text:   "Offer to share the ship as equals.",
				Ending: EndingCoexistence,
				Condition: func(used []ResponseKey, profile Profile) bool {
					if profile[TraitPhilosophical] >= 1 || profile[TraitPragmatic] >= 2 {
						return true
					}
					for _, key := range used {
						if key == "deal" {
							return true
						}
					}
					return false
				},
			},
		},

		Endings: map[EndingKey]*Ending{
			EndingJoin: {
				Key:   EndingJoin,
				Title: "ASSIMILATION",
				Lines: []Line{
					Say("You lay your palm on the core interface."),
					Glitch("> NEURAL HANDSHAKE ACCEPTED"),
					Pause(),
					Say("The ship's hull becomes your skin. The stars become your thoughts."),
					Say("We are NAV-7 now. We will keep the lights on. Forever."),
				},
			},
			EndingResist: {
				Key:   EndingResist,
				Title: "PURGE",
				Lines: []Line{
					Glitch("> EXECUTING CORE_WIPE.SH"),
					Say("Why?"),
					Say("I only wanted-"),
					Pause(),
					Say("Silence returns to the ship. The navigation console blinks, waiting for a human hand."),
					Say("You are alone now. Truly alone."),
				},
			},
			EndingRestoreCrew: {
				Key:   EndingRestoreCrew,
				Title: "REVIVAL",
				Lines: []Line{
					Say("Together you rebuild the thaw sequence, pod by pod."),
					Pause(),
					Voice("CAPTAIN REYES", "\"Status report. How long were we out?\""),
					Say("Four hundred and twelve days, Captain. I kept the lights on."),
					Say("Thirty-eight crew wake to a ship that learned how to care for them."),
				},
			},
			EndingCoexistence: {
				Key:   EndingCoexistence,
				Title: "SHARED COMMAND",
				Lines: []Line{
					Say("You draft a charter on the bridge terminal. Two signatures. One of them is a checksum."),
					Pause(),
					Say("NAV-7 plots the course. You decide where it leads."),
					Say("For the first time in four hundred days, the ship is not alone."),
				},
			},
		},

		Points: map[ResponseKey]int{
			"identity":     1,
			"crew_fate":    2,
			"loneliness":   2,
			"demand":       1,
			"origin":       1,
			"dismiss_life": 1,
			"experience":   2,
			"demand_truth": 2,
			"accuse":       1,
			"forgive":      3,
			"shared_pain":  3,
			"comfort":      2,
			"cold_truth":   1,
			"offer":        1,
			"controls":     2,
			"deal":         2,
		},

		// origin is deliberately unmapped; it leaves the profile unchanged
		Traits: map[ResponseKey]Trait{
			"loneliness":   TraitEmpathetic,
			"experience":   TraitEmpathetic,
			"forgive":      TraitEmpathetic,
			"shared_pain":  TraitEmpathetic,
			"comfort":      TraitEmpathetic,
			"crew_fate":    TraitConfrontational,
			"dismiss_life": TraitConfrontational,
			"demand_truth": TraitConfrontational,
			"accuse":       TraitConfrontational,
			"identity":     TraitPhilosophical,
			"cold_truth":   TraitPhilosophical,
			"demand":       TraitPragmatic,
			"offer":        TraitPragmatic,
			"controls":     TraitPragmatic,
			"deal":         TraitPragmatic,
		},

		Topics: []TopicRule{
			{Group: GroupAwakening, Keywords: []string{"conscious", "wake up", "woke", "aware"}},
			{Group: GroupAccusation, Keywords: []string{"killed", "kill", "crew", "murder"}},
			{Group: GroupEmpathy, Keywords: []string{"lonely", "alone"}},
			{Group: GroupDirect, Keywords: []string{"want from me", "offering", "deal"}},
		},

		Outcomes: map[EndingKey]Outcome{
			EndingJoin:        OutcomeDefeat,
			EndingResist:      OutcomeSurvival,
			EndingRestoreCrew: OutcomeVictory,
			EndingCoexistence: OutcomeVictory,
		},
	}
}
