// Package followup decides whether an answer deserves a follow-up question
// and phrases it.
package followup

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/spigell/interviewer/internal/interview"
)

// DefaultMaxFollowups caps follow-ups per session.
const DefaultMaxFollowups = 8

// Strategy governs how readily follow-ups are issued.
type Strategy string

const (
	Conservative Strategy = "conservative"
	Aggressive   Strategy = "aggressive"
)

// Trigger is the reason a follow-up was issued.
type Trigger string

const (
	TriggerIncomplete Trigger = "incomplete"
	TriggerWrong      Trigger = "wrong"
	TriggerDeep       Trigger = "deep"
	TriggerScenario   Trigger = "scenario"
)

// Triggers lists every trigger in precedence order.
func Triggers() []Trigger {
	return []Trigger{TriggerIncomplete, TriggerWrong, TriggerDeep, TriggerScenario}
}

const (
	conservativeWindow  = 15.0
	aggressiveWindowEnd = 35.0
	confidenceThreshold = 0.7

	aggressiveMinTotal  = 75
	aggressiveMaxDepth  = 80
	minCompleteness     = 70
	minAccuracy         = 60
	defaultFollowupText = "Could you elaborate on that?"
)

// Templates holds follow-up phrases keyed by trigger. Phrases may reference
// the question category as {category}, {concept} or {topic}.
type Templates map[Trigger][]string

// DefaultTemplates returns the stock phrasing.
func DefaultTemplates() Templates {
	return Templates{
		TriggerDeep: {
			"Why is {concept} designed this way?",
			"What trade-offs does {concept} make under the hood?",
		},
		TriggerIncomplete: {
			"Could you go into more detail?",
			"Is there anything about {topic} you left out?",
		},
		TriggerWrong: {
			"There's a small problem in that answer. Would you like to think it over again?",
		},
		TriggerScenario: {
			"In a real project, what challenges would {topic} run into?",
		},
	}
}

// Policy implements the follow-up decision. Decide is pure; FollowUp picks
// among configured phrases with the injected random source.
type Policy struct {
	templates Templates

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPolicy(templates Templates, rng *rand.Rand) *Policy {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Policy{templates: templates, rng: rng}
}

// StrategyFor picks the strategy mode for the elapsed interview time and the
// confidence in the candidate, total score / 100 of the latest answer.
func StrategyFor(elapsedMinutes, confidence float64) Strategy {
	switch {
	case elapsedMinutes < conservativeWindow:
		return Conservative
	case elapsedMinutes < aggressiveWindowEnd:
		if confidence > confidenceThreshold {
			return Aggressive
		}
		return Conservative
	default:
		return Conservative
	}
}

// Decide reports whether to follow up on the evaluated answer and under which strategy.
func (p *Policy) Decide(e interview.Evaluation, followupCount int, elapsedMinutes float64, maxFollowups int) (bool, Strategy) {
	if followupCount >= maxFollowups {
		return false, Conservative
	}

	strategy := StrategyFor(elapsedMinutes, float64(e.TotalScore)/100)

	if strategy == Aggressive {
		return e.TotalScore > aggressiveMinTotal && e.Depth() < aggressiveMaxDepth, strategy
	}
	return e.Completeness() < minCompleteness || e.Accuracy() < minAccuracy, strategy
}

// TriggerFor returns the follow-up kind. Incompleteness and correctness are
// checked before the strategy-driven probes.
func TriggerFor(e interview.Evaluation, strategy Strategy) Trigger {
	switch {
	case e.Completeness() < minCompleteness:
		return TriggerIncomplete
	case e.Accuracy() < minAccuracy:
		return TriggerWrong
	case strategy == Aggressive:
		return TriggerDeep
	default:
		return TriggerScenario
	}
}

// FollowUp phrases the follow-up for the question. Scenario probes prefer the
// question's own follow-up pool.
func (p *Policy) FollowUp(q interview.Question, e interview.Evaluation, strategy Strategy) (Trigger, string) {
	trigger := TriggerFor(e, strategy)

	phrases := p.templates[trigger]
	if trigger == TriggerScenario && len(q.FollowUps) > 0 {
		phrases = q.FollowUps
	}
	if len(phrases) == 0 {
		return trigger, defaultFollowupText
	}

	p.mu.Lock()
	phrase := phrases[p.rng.IntN(len(phrases))]
	p.mu.Unlock()

	return trigger, render(phrase, q.Category)
}

func render(phrase, category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = "this"
	}
	return strings.NewReplacer(
		"{category}", category,
		"{concept}", category,
		"{topic}", category,
	).Replace(phrase)
}
