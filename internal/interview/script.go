package interview

import (
	"fmt"
	"strings"
	"time"
)

// OpeningPrompts returns the fixed ice-breaker prompts.
func OpeningPrompts(candidate string, total time.Duration) []string {
	greeting := "Hello, please briefly introduce yourself."
	if name := strings.TrimSpace(candidate); name != "" {
		greeting = fmt.Sprintf("Hello %s, please briefly introduce yourself.", name)
	}

	return []string{
		greeting,
		fmt.Sprintf("Today's interview takes about %d minutes and has three parts: technical basics, a project deep dive and a system design exercise. Are you ready?", int(total.Minutes())),
	}
}

// ClosingPrompts returns the fixed wrap-up prompts.
func ClosingPrompts() []string {
	return []string{
		"That's all from my side today. Do you have any questions for me?",
		"We will get back to you with the result within three working days.",
	}
}

// ScriptedQuestion folds the scripted prompts of a phase into a single
// unscored question so that opening and closing share the cursor logic of the
// other phases.
func ScriptedQuestion(phase Phase, prompts []string) Question {
	return Question{
		ID:       phase.String(),
		Text:     strings.Join(prompts, "\n"),
		Category: phase.String(),
	}
}
