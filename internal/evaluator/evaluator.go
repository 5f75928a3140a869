// Package evaluator scores candidate answers through a text-generation backend.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

//go:embed system.md
var systemPrompt string

const (
	FallbackScore    = 70
	FallbackFeedback = "The answer could not be evaluated automatically; a default score was assigned."

	defaultTemperature    = 0.2
	defaultMaxAnswerRunes = 1000
	defaultMaxLogLength   = 200
)

// Request is a single answer to score. Context and FollowUp are optional.
type Request struct {
	Question interview.Question
	Answer   string
	Context  string
	FollowUp string
}

// Options tune the evaluator.
type Options struct {
	Temperature    float32
	MaxAnswerRunes int
	MaxLogLength   int
}

// Evaluator scores answers. A failed evaluation never surfaces as an error:
// the caller always gets a usable Evaluation.
type Evaluator struct {
	generator      ai.TextGenerator
	temperature    float32
	maxAnswerRunes int
	maxLogLen      int
	logger         *zap.Logger
}

func New(generator ai.TextGenerator, opts Options, log *zap.Logger) *Evaluator {
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.MaxAnswerRunes <= 0 {
		opts.MaxAnswerRunes = defaultMaxAnswerRunes
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator:      generator,
		temperature:    opts.Temperature,
		maxAnswerRunes: opts.MaxAnswerRunes,
		maxLogLen:      opts.MaxLogLength,
		logger:         logger.OrNop(log),
	}
}

// Evaluate scores the answer, degrading to Fallback on any failure.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) interview.Evaluation {
	log := e.logger.With(zap.String(logger.FieldQuestion, req.Question.ID))

	evaluation, err := e.evaluate(ctx, req, log)
	if err != nil {
		log.Warn("answer evaluation failed, using fallback score", zap.Error(err))
		return Fallback(req.Question.ID)
	}

	log.Debug("answer evaluated",
		zap.Int("total_score", evaluation.TotalScore),
		zap.Int("accuracy", evaluation.Accuracy()),
		zap.Int("completeness", evaluation.Completeness()),
		zap.Int("logic", evaluation.Logic()),
		zap.Int("depth", evaluation.Depth()),
	)

	return evaluation
}

func (e *Evaluator) evaluate(ctx context.Context, req Request, log *zap.Logger) (interview.Evaluation, error) {
	if e.generator == nil {
		return interview.Evaluation{}, ai.ErrNotConfigured
	}

	prompt := BuildPrompt(req, e.maxAnswerRunes)

	log.Debug("evaluation request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.Generate(ctx, []ai.Message{
		ai.System(systemPrompt),
		ai.User(prompt),
	}, ai.Options{Temperature: ai.Temperature(e.temperature)})
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("generate evaluation: %w", err)
	}

	log.Debug("evaluation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return ParseResponse(req.Question.ID, raw)
}

// Fallback is the deterministic evaluation used when scoring is impossible.
func Fallback(questionID string) interview.Evaluation {
	scores := make(map[interview.Dimension]int, 4)
	for _, d := range interview.Dimensions() {
		scores[d] = FallbackScore
	}
	return interview.Evaluation{
		QuestionID:  questionID,
		Scores:      scores,
		TotalScore:  FallbackScore,
		Feedback:    FallbackFeedback,
		Suggestions: []string{},
		Fallback:    true,
	}
}

// BuildPrompt renders the scoring prompt. The answer is cut to maxAnswerRunes.
func BuildPrompt(req Request, maxAnswerRunes int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Question:\n{{QUESTION}}\n\nAnswer:\n{{ANSWER}}\n\nJSON Response:"
	}

	expected := "none"
	if points := utils.CompactStrings(req.Question.ExpectedPoints); len(points) > 0 {
		expected = "- " + strings.Join(points, "\n- ")
	}

	answer := strings.TrimSpace(utils.TruncateRunes(strings.TrimSpace(req.Answer), maxAnswerRunes))
	if answer == "" {
		answer = "(no answer)"
	}

	return strings.NewReplacer(
		"{{QUESTION}}", orNone(req.Question.Text),
		"{{EXPECTED_POINTS}}", expected,
		"{{CONTEXT}}", orNone(req.Context),
		"{{FOLLOW_UP}}", orNone(req.FollowUp),
		"{{ANSWER}}", answer,
	).Replace(template)
}

func orNone(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "none"
	}
	return s
}

var errMissingField = errors.New("missing field in evaluation response")

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
