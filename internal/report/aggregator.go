// Package report turns the evaluations of a session into a leveled result.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/utils"
	"go.uber.org/zap"
)

// ErrEmptySession is returned when a report is requested before any answer was scored.
var ErrEmptySession = errors.New("empty session: no evaluations to aggregate")

const (
	RecommendationRecommend = "recommend"
	RecommendationUndecided = "undecided"

	seniorThreshold    = 90.0
	juniorThreshold    = 70.0
	recommendThreshold = 75.0

	narrativeTemperature = 0.5
	maxLogLength         = 200
)

// Summary is the numeric part of a report.
type Summary struct {
	Overall           float64
	DimensionAverages map[interview.Dimension]float64
	Level             interview.Level
	Recommendation    string
}

// Aggregate averages total scores and each dimension independently.
// Dimensions no evaluation reported are left out of the summary.
func Aggregate(evaluations []interview.Evaluation) (Summary, error) {
	if len(evaluations) == 0 {
		return Summary{}, ErrEmptySession
	}

	total := 0
	sums := make(map[interview.Dimension]int)
	counts := make(map[interview.Dimension]int)
	for _, e := range evaluations {
		total += e.TotalScore
		for _, d := range interview.Dimensions() {
			if v, ok := e.Score(d); ok {
				sums[d] += v
				counts[d]++
			}
		}
	}

	averages := make(map[interview.Dimension]float64, len(counts))
	for d, n := range counts {
		averages[d] = float64(sums[d]) / float64(n)
	}

	overall := float64(total) / float64(len(evaluations))

	return Summary{
		Overall:           overall,
		DimensionAverages: averages,
		Level:             LevelFor(overall),
		Recommendation:    RecommendationFor(overall),
	}, nil
}

// LevelFor classifies an average score.
func LevelFor(average float64) interview.Level {
	switch {
	case average >= seniorThreshold:
		return interview.LevelSenior
	case average < juniorThreshold:
		return interview.LevelJunior
	default:
		return interview.LevelMid
	}
}

// RecommendationFor applies the fixed hiring threshold.
func RecommendationFor(average float64) string {
	if average >= recommendThreshold {
		return RecommendationRecommend
	}
	return RecommendationUndecided
}

// Aggregator produces summaries and, when a generator is configured, a short
// narrative.
type Aggregator struct {
	generator ai.TextGenerator
	logger    *zap.Logger
}

func NewAggregator(generator ai.TextGenerator, log *zap.Logger) *Aggregator {
	return &Aggregator{generator: generator, logger: logger.OrNop(log)}
}

func (a *Aggregator) Aggregate(evaluations []interview.Evaluation) (Summary, error) {
	return Aggregate(evaluations)
}

// Narrative asks the text generator for a short written summary. Failures
// are logged and yield an empty narrative.
func (a *Aggregator) Narrative(ctx context.Context, candidate string, summary Summary, evaluations []interview.Evaluation) string {
	if a.generator == nil {
		return ""
	}

	prompt := narrativePrompt(candidate, summary, evaluations)
	out, err := a.generator.Generate(ctx, []ai.Message{
		ai.System("You are a hiring manager writing a concise interview summary for a technical candidate."),
		ai.User(prompt),
	}, ai.Options{Temperature: ai.Temperature(narrativeTemperature)})
	if err != nil {
		a.logger.Warn("narrative generation failed", zap.Error(err))
		return ""
	}

	out = strings.TrimSpace(out)
	a.logger.Debug("narrative generated", zap.String("preview", utils.TruncateForLog(out, maxLogLength)))
	return out
}

func narrativePrompt(candidate string, summary Summary, evaluations []interview.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", strings.TrimSpace(candidate))
	fmt.Fprintf(&b, "Overall score: %.1f, level: %s, recommendation: %s\n", summary.Overall, summary.Level, summary.Recommendation)
	for _, d := range interview.Dimensions() {
		if v, ok := summary.DimensionAverages[d]; ok {
			fmt.Fprintf(&b, "%s: %.1f\n", d, v)
		}
	}
	b.WriteString("\nPer question feedback:\n")
	for _, e := range evaluations {
		fmt.Fprintf(&b, "- %s (%d): %s\n", e.QuestionID, e.TotalScore, strings.TrimSpace(e.Feedback))
	}
	b.WriteString("\nWrite three to five sentences covering strengths, weaknesses and what to probe in the next round. Plain text only.")
	return b.String()
}
