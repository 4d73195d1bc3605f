package synth

import "strings"

// Intent is a keyword-classified message category.
type Intent string

const (
	IntentGuidance    Intent = "guidance"
	IntentExplanation Intent = "explanation"
	IntentValidation  Intent = "validation"
	IntentGeneral     Intent = "general"
)

// intentKeywords is checked in order; the first matching category wins.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGuidance, []string{"help", "homework", "assignment", "problem", "solve", "stuck"}},
	{IntentExplanation, []string{"explain", "understand", "what is", "how does", "why"}},
	{IntentValidation, []string{"check", "am i right", "is this correct", "did i get", "review"}},
}

// Classify returns the intent for a message. General is the default when
// no keyword matches.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}
