package evaluator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/interview"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response string
	err      error
	messages []ai.Message
	opts     ai.Options
}

func (s *stubGenerator) Generate(_ context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	s.messages = messages
	s.opts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var question = interview.Question{
	ID:             "go-1",
	Text:           "Explain the GMP scheduler.",
	Category:       "Go",
	ExpectedPoints: []string{"G, M and P roles", "work stealing"},
}

func assertFallback(t *testing.T, e interview.Evaluation) {
	t.Helper()
	if !e.Fallback || e.TotalScore != FallbackScore {
		t.Fatalf("expected fallback evaluation, got %+v", e)
	}
	for _, d := range interview.Dimensions() {
		if v, ok := e.Score(d); !ok || v != FallbackScore {
			t.Fatalf("expected %s=%d, got %d (%v)", d, FallbackScore, v, ok)
		}
	}
	if e.Feedback == "" || len(e.Suggestions) != 0 {
		t.Fatalf("unexpected fallback feedback %q / suggestions %v", e.Feedback, e.Suggestions)
	}
	if e.QuestionID != question.ID {
		t.Fatalf("expected question id to be kept, got %q", e.QuestionID)
	}
}

func TestEvaluateSuccess(t *testing.T) {
	stub := &stubGenerator{response: `{"accuracy": 85, "completeness": 80, "logic": 90, "depth": 75, "total_score": 82, "feedback": "Solid", "suggestions": ["mention preemption"]}`}
	e := New(stub, Options{}, zap.NewNop())

	got := e.Evaluate(context.Background(), Request{Question: question, Answer: "G is a goroutine...", Context: "reference", FollowUp: "And work stealing?"})

	if got.Fallback {
		t.Fatal("did not expect fallback")
	}
	if got.TotalScore != 82 || got.Accuracy() != 85 || got.Completeness() != 80 || got.Logic() != 90 || got.Depth() != 75 {
		t.Fatalf("unexpected scores %+v", got)
	}
	if got.Feedback != "Solid" || len(got.Suggestions) != 1 {
		t.Fatalf("unexpected feedback %+v", got)
	}

	if len(stub.messages) != 2 || stub.messages[0].Role != ai.RoleSystem || stub.messages[1].Role != ai.RoleUser {
		t.Fatalf("unexpected messages %+v", stub.messages)
	}
	if stub.opts.Temperature == nil || *stub.opts.Temperature != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", stub.opts.Temperature)
	}

	prompt := stub.messages[1].Content
	for _, want := range []string{question.Text, "- work stealing", "reference", "And work stealing?", "G is a goroutine..."} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}

func TestEvaluateFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		generator ai.TextGenerator
	}{
		{name: "no generator", generator: nil},
		{name: "backend failure", generator: &stubGenerator{err: errors.New("503 unavailable")}},
		{name: "not json", generator: &stubGenerator{response: "The candidate did great!"}},
		{name: "broken json", generator: &stubGenerator{response: `{"accuracy": 85, "completeness":`}},
		{name: "missing dimension", generator: &stubGenerator{response: `{"accuracy": 85, "completeness": 80, "logic": 90, "total_score": 82}`}},
		{name: "null dimension", generator: &stubGenerator{response: `{"accuracy": 85, "completeness": 80, "logic": 90, "depth": null}`}},
		{name: "missing total", generator: &stubGenerator{response: `{"accuracy": 90, "completeness": 90, "logic": 90, "depth": 90, "feedback": "ok"}`}},
		{name: "missing feedback", generator: &stubGenerator{response: `{"accuracy": 90, "completeness": 90, "logic": 90, "depth": 90, "total_score": 90}`}},
		{name: "non numeric score", generator: &stubGenerator{response: `{"accuracy": "great", "completeness": 80, "logic": 90, "depth": 70}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New(tt.generator, Options{}, zap.NewNop())
			assertFallback(t, e.Evaluate(context.Background(), Request{Question: question, Answer: "answer"}))
		})
	}
}

func TestEvaluateLogsFailure(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	e := New(&stubGenerator{response: "nope"}, Options{}, zap.New(core))

	e.Evaluate(context.Background(), Request{Question: question, Answer: "answer"})

	entries := observed.FilterMessage("answer evaluation failed, using fallback score").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["question_id"] != question.ID {
		t.Fatalf("expected question id in log context, got %v", entries[0].ContextMap())
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		total int
		dims  [4]int
		check func(t *testing.T, e interview.Evaluation)
	}{
		{
			name:  "code fence",
			raw:   "```json\n{\"accuracy\": 70, \"completeness\": 60, \"logic\": 80, \"depth\": 50, \"total_score\": 65, \"feedback\": \"ok\"}\n```",
			total: 65,
			dims:  [4]int{70, 60, 80, 50},
		},
		{
			name:  "prose around json",
			raw:   "Here is my assessment:\n{\"accuracy\": 70, \"completeness\": 60, \"logic\": 80, \"depth\": 50, \"total_score\": 65, \"feedback\": \"ok\"}\nThanks!",
			total: 65,
			dims:  [4]int{70, 60, 80, 50},
		},
		{
			name:  "numeric strings and clamping",
			raw:   `{"accuracy": "120", "completeness": -5, "logic": "79.6", "depth": 50, "total_score": "101", "feedback": "ok"}`,
			total: 100,
			dims:  [4]int{100, 0, 80, 50},
		},
		{
			name:  "nested score objects",
			raw:   `{"accuracy": {"score": 85, "feedback": "ok"}, "completeness": {"score": 80}, "logic": {"score": "90"}, "depth": {"score": 75}, "total_score": 82.5, "overall_feedback": "Good overall"}`,
			total: 83,
			dims:  [4]int{85, 80, 90, 75},
			check: func(t *testing.T, e interview.Evaluation) {
				if e.Feedback != "Good overall" {
					t.Fatalf("expected overall feedback, got %q", e.Feedback)
				}
			},
		},
		{
			name:  "single suggestion string",
			raw:   `{"accuracy": 80, "completeness": 80, "logic": 80, "depth": 80, "total_score": 80, "feedback": "ok", "suggestions": "read the runtime source"}`,
			total: 80,
			dims:  [4]int{80, 80, 80, 80},
			check: func(t *testing.T, e interview.Evaluation) {
				if len(e.Suggestions) != 1 || e.Suggestions[0] != "read the runtime source" {
					t.Fatalf("unexpected suggestions %v", e.Suggestions)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := ParseResponse("q", tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.TotalScore != tt.total {
				t.Fatalf("expected total %d, got %d", tt.total, e.TotalScore)
			}
			got := [4]int{e.Accuracy(), e.Completeness(), e.Logic(), e.Depth()}
			if got != tt.dims {
				t.Fatalf("expected dimensions %v, got %v", tt.dims, got)
			}
			if tt.check != nil {
				tt.check(t, e)
			}
		})
	}
}

func TestParseResponseRejectsNonJSON(t *testing.T) {
	if _, err := ParseResponse("q", "I think the answer scores about 80."); err == nil {
		t.Fatal("expected error for non-json response")
	}
}

func TestBuildPromptTruncatesAnswer(t *testing.T) {
	long := strings.Repeat("a", 1500)
	prompt := BuildPrompt(Request{Question: interview.Question{Text: "Q"}, Answer: long}, 1000)

	if strings.Contains(prompt, strings.Repeat("a", 1001)) {
		t.Fatal("expected answer to be truncated to 1000 runes")
	}
	if !strings.Contains(prompt, strings.Repeat("a", 1000)) {
		t.Fatal("expected the first 1000 runes of the answer")
	}
	if !strings.Contains(prompt, "[Expected points]\nnone") {
		t.Fatalf("expected placeholder for missing expected points:\n%s", prompt)
	}
}
