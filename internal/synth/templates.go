package synth

// templates holds the canned response set per intent. Wording stays
// socratic: guide, never hand over answers.
var templates = map[Intent][]string{
	IntentGuidance: {
		"I can help guide you through this. What specific part are you finding challenging?",
		"Let's break this down step by step. What have you tried so far?",
		"Good question! Instead of giving you the answer, let me ask: what do you think the first step should be?",
	},
	IntentExplanation: {
		"Let me help you understand this. Can you tell me what you already know about it?",
		"That's a great topic to explore. What aspects of it are unclear to you?",
		"I'll guide you to discover this yourself. What patterns do you notice?",
	},
	IntentValidation: {
		"Let's verify it together. Can you walk me through your reasoning?",
		"Before I weigh in: how confident are you in each step, and why?",
		"A good way to check is to work backwards from your answer. What do you get?",
	},
	IntentGeneral: {
		"That's interesting. Can you elaborate on what you're working on?",
		"I'm here to guide your learning. What would you like to explore?",
		"Good question! Let's think through this together.",
	},
}

// moodAdjustments are appended when the caller reported a mood.
var moodAdjustments = map[string]string{
	"struggling": " Remember, it's okay to find things difficult. We'll work through this together.",
	"excited":    " I love your enthusiasm! Let's dive in!",
	"focused":    " Great mindset for learning!",
	"happy":      " Wonderful energy! Let's make the most of it!",
}

// Templates returns the template set for an intent.
func Templates(intent Intent) []string {
	if t, ok := templates[intent]; ok {
		return t
	}
	return templates[IntentGeneral]
}
