package report

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/interview"
	"go.uber.org/zap"
)

func evaluation(id string, total int, scores map[interview.Dimension]int) interview.Evaluation {
	return interview.Evaluation{QuestionID: id, TotalScore: total, Scores: scores, Feedback: "fb " + id}
}

func uniform(id string, v int) interview.Evaluation {
	return evaluation(id, v, map[interview.Dimension]int{
		interview.DimensionAccuracy:     v,
		interview.DimensionCompleteness: v,
		interview.DimensionLogic:        v,
		interview.DimensionDepth:        v,
	})
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	if !errors.Is(err, ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestAggregateMeans(t *testing.T) {
	evals := []interview.Evaluation{
		evaluation("a", 80, map[interview.Dimension]int{
			interview.DimensionAccuracy: 90,
			interview.DimensionDepth:    60,
		}),
		evaluation("b", 70, map[interview.Dimension]int{
			interview.DimensionAccuracy:     70,
			interview.DimensionCompleteness: 75,
			interview.DimensionDepth:        81,
		}),
		evaluation("c", 61, map[interview.Dimension]int{
			interview.DimensionAccuracy: 50,
		}),
	}

	s, err := Aggregate(evals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(s.Overall-70.333333) > 1e-4 {
		t.Fatalf("unexpected overall %v", s.Overall)
	}

	want := map[interview.Dimension]float64{
		interview.DimensionAccuracy:     70,
		interview.DimensionCompleteness: 75,
		interview.DimensionDepth:        70.5,
	}
	if len(s.DimensionAverages) != len(want) {
		t.Fatalf("expected %d dimensions, got %v", len(want), s.DimensionAverages)
	}
	for d, v := range want {
		if got := s.DimensionAverages[d]; math.Abs(got-v) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", d, v, got)
		}
	}
	if _, ok := s.DimensionAverages[interview.DimensionLogic]; ok {
		t.Fatal("logic was never reported and must be omitted")
	}
}

func TestLevelAndRecommendation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		average        float64
		level          interview.Level
		recommendation string
	}{
		{average: 95, level: interview.LevelSenior, recommendation: RecommendationRecommend},
		{average: 90, level: interview.LevelSenior, recommendation: RecommendationRecommend},
		{average: 89.9, level: interview.LevelMid, recommendation: RecommendationRecommend},
		{average: 80, level: interview.LevelMid, recommendation: RecommendationRecommend},
		{average: 75, level: interview.LevelMid, recommendation: RecommendationRecommend},
		{average: 74.9, level: interview.LevelMid, recommendation: RecommendationUndecided},
		{average: 70, level: interview.LevelMid, recommendation: RecommendationUndecided},
		{average: 69.9, level: interview.LevelJunior, recommendation: RecommendationUndecided},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.average); got != tt.level {
			t.Fatalf("%v: expected level %s, got %s", tt.average, tt.level, got)
		}
		if got := RecommendationFor(tt.average); got != tt.recommendation {
			t.Fatalf("%v: expected %s, got %s", tt.average, tt.recommendation, got)
		}
	}
}

func TestAggregateUniformScores(t *testing.T) {
	evals := make([]interview.Evaluation, 0, 10)
	for i := 0; i < 10; i++ {
		evals = append(evals, uniform("q", 80))
	}

	s, err := Aggregate(evals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Level != interview.LevelMid || s.Recommendation != RecommendationRecommend {
		t.Fatalf("unexpected summary %+v", s)
	}
	for _, d := range interview.Dimensions() {
		if s.DimensionAverages[d] != 80 {
			t.Fatalf("%s: expected 80, got %v", d, s.DimensionAverages[d])
		}
	}
}

type stubGenerator struct {
	out    string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, messages []ai.Message, _ ai.Options) (string, error) {
	s.prompt = messages[len(messages)-1].Content
	return s.out, s.err
}

func TestNarrative(t *testing.T) {
	evals := []interview.Evaluation{uniform("go-1", 80)}
	s, _ := Aggregate(evals)

	stub := &stubGenerator{out: "  Strong fundamentals.  "}
	a := NewAggregator(stub, zap.NewNop())
	if got := a.Narrative(context.Background(), "Alex", s, evals); got != "Strong fundamentals." {
		t.Fatalf("unexpected narrative %q", got)
	}
	if !strings.Contains(stub.prompt, "Alex") || !strings.Contains(stub.prompt, "go-1 (80)") {
		t.Fatalf("unexpected prompt %q", stub.prompt)
	}

	failing := NewAggregator(&stubGenerator{err: errors.New("timeout")}, zap.NewNop())
	if got := failing.Narrative(context.Background(), "Alex", s, evals); got != "" {
		t.Fatalf("expected empty narrative on failure, got %q", got)
	}

	if got := NewAggregator(nil, nil).Narrative(context.Background(), "Alex", s, evals); got != "" {
		t.Fatalf("expected empty narrative without generator, got %q", got)
	}
}
