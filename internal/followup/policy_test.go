package followup

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/spigell/interviewer/internal/interview"
)

func eval(accuracy, completeness, logic, depth, total int) interview.Evaluation {
	return interview.Evaluation{
		QuestionID: "q1",
		Scores: map[interview.Dimension]int{
			interview.DimensionAccuracy:     accuracy,
			interview.DimensionCompleteness: completeness,
			interview.DimensionLogic:        logic,
			interview.DimensionDepth:        depth,
		},
		TotalScore: total,
	}
}

func newPolicy() *Policy {
	return NewPolicy(nil, rand.New(rand.NewPCG(7, 7)))
}

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		evaluation interview.Evaluation
		count      int
		elapsed    float64
		max        int
		follow     bool
		strategy   Strategy
	}{
		{
			name:       "ceiling reached",
			evaluation: eval(10, 10, 10, 10, 10),
			count:      8,
			max:        8,
			follow:     false,
			strategy:   Conservative,
		},
		{
			name:       "early incomplete answer",
			evaluation: eval(90, 60, 90, 90, 85),
			elapsed:    5,
			max:        8,
			follow:     true,
			strategy:   Conservative,
		},
		{
			name:       "early inaccurate answer",
			evaluation: eval(50, 80, 80, 80, 70),
			elapsed:    5,
			max:        8,
			follow:     true,
			strategy:   Conservative,
		},
		{
			name:       "early strong answer",
			evaluation: eval(90, 90, 90, 60, 90),
			elapsed:    14.9,
			max:        8,
			follow:     false,
			strategy:   Conservative,
		},
		{
			name:       "mid interview strong but shallow",
			evaluation: eval(90, 90, 90, 60, 85),
			elapsed:    20,
			max:        8,
			follow:     true,
			strategy:   Aggressive,
		},
		{
			name:       "mid interview strong and deep",
			evaluation: eval(90, 90, 90, 85, 88),
			elapsed:    20,
			max:        8,
			follow:     false,
			strategy:   Aggressive,
		},
		{
			name:       "mid interview low confidence",
			evaluation: eval(65, 65, 65, 65, 65),
			elapsed:    20,
			max:        8,
			follow:     true,
			strategy:   Conservative,
		},
		{
			name:       "confidence exactly at threshold stays conservative",
			evaluation: eval(80, 80, 70, 40, 70),
			elapsed:    20,
			max:        8,
			follow:     false,
			strategy:   Conservative,
		},
		{
			name:       "late interview strong but shallow",
			evaluation: eval(90, 90, 90, 60, 85),
			elapsed:    35,
			max:        8,
			follow:     false,
			strategy:   Conservative,
		},
		{
			name:       "zero max never follows",
			evaluation: eval(10, 10, 10, 10, 10),
			max:        0,
			follow:     false,
			strategy:   Conservative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			follow, strategy := newPolicy().Decide(tt.evaluation, tt.count, tt.elapsed, tt.max)
			if follow != tt.follow || strategy != tt.strategy {
				t.Fatalf("expected (%v, %s), got (%v, %s)", tt.follow, tt.strategy, follow, strategy)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	p := newPolicy()
	e := eval(72, 68, 75, 79, 76)

	follow, strategy := p.Decide(e, 3, 22.5, 8)
	for i := 0; i < 100; i++ {
		f, s := p.Decide(e, 3, 22.5, 8)
		if f != follow || s != strategy {
			t.Fatalf("decision changed on iteration %d", i)
		}
	}
}

func TestTriggerPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		evaluation interview.Evaluation
		strategy   Strategy
		want       Trigger
	}{
		{
			name:       "incomplete beats depth under aggressive",
			evaluation: eval(90, 50, 90, 90, 95),
			strategy:   Aggressive,
			want:       TriggerIncomplete,
		},
		{
			name:       "incomplete beats wrong",
			evaluation: eval(40, 50, 90, 90, 60),
			strategy:   Conservative,
			want:       TriggerIncomplete,
		},
		{
			name:       "wrong beats depth",
			evaluation: eval(40, 90, 90, 50, 80),
			strategy:   Aggressive,
			want:       TriggerWrong,
		},
		{
			name:       "aggressive depth probe",
			evaluation: eval(90, 90, 90, 60, 85),
			strategy:   Aggressive,
			want:       TriggerDeep,
		},
		{
			name:       "conservative scenario probe",
			evaluation: eval(90, 90, 90, 60, 85),
			strategy:   Conservative,
			want:       TriggerScenario,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			trigger, text := newPolicy().FollowUp(interview.Question{Category: "Redis"}, tt.evaluation, tt.strategy)
			if trigger != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, trigger)
			}
			if strings.TrimSpace(text) == "" {
				t.Fatal("expected follow-up text")
			}
		})
	}
}

func TestFollowUpSubstitutesCategory(t *testing.T) {
	p := NewPolicy(Templates{TriggerDeep: {"Why does {concept} work like that? ({category}/{topic})"}}, rand.New(rand.NewPCG(1, 1)))

	_, text := p.FollowUp(interview.Question{Category: "MySQL"}, eval(90, 90, 90, 60, 85), Aggressive)
	if text != "Why does MySQL work like that? (MySQL/MySQL)" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestScenarioProbeUsesQuestionPool(t *testing.T) {
	p := newPolicy()
	q := interview.Question{Category: "system-design", FollowUps: []string{"What is your caching strategy?"}}

	trigger, text := p.FollowUp(q, eval(90, 90, 90, 60, 85), Conservative)
	if trigger != TriggerScenario || text != "What is your caching strategy?" {
		t.Fatalf("unexpected follow-up %s %q", trigger, text)
	}

	// the pool is not used for correctness follow-ups
	trigger, text = p.FollowUp(q, eval(30, 90, 90, 60, 60), Conservative)
	if trigger != TriggerWrong || text == "What is your caching strategy?" {
		t.Fatalf("unexpected follow-up %s %q", trigger, text)
	}
}

func TestFollowUpWithoutTemplates(t *testing.T) {
	p := NewPolicy(Templates{}, nil)
	_, text := p.FollowUp(interview.Question{}, eval(90, 50, 90, 90, 80), Conservative)
	if text != defaultFollowupText {
		t.Fatalf("expected default text, got %q", text)
	}
}
