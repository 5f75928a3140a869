package evaluator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/utils"
)

// response mirrors the JSON requested from the backend. Pointers distinguish
// missing scores from zero scores.
type response struct {
	Accuracy        *float64 `mapstructure:"accuracy"`
	Completeness    *float64 `mapstructure:"completeness"`
	Logic           *float64 `mapstructure:"logic"`
	Depth           *float64 `mapstructure:"depth"`
	TotalScore      *float64 `mapstructure:"total_score"`
	Feedback        *string  `mapstructure:"feedback"`
	OverallFeedback *string  `mapstructure:"overall_feedback"`
	Suggestions     []string `mapstructure:"suggestions"`
}

// ParseResponse turns backend output into an Evaluation. The output may be
// wrapped in a markdown fence or surrounded by prose; numbers may be strings
// or {"score": n} objects. All four dimensions, the total score and the
// feedback are required; suggestions may be omitted.
func ParseResponse(questionID, raw string) (interview.Evaluation, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return interview.Evaluation{}, fmt.Errorf("parse evaluation: no json object in response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return interview.Evaluation{}, fmt.Errorf("parse evaluation: %w", err)
	}

	var resp response
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scoreObjectHook,
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("build evaluation decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return interview.Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}

	dims := map[interview.Dimension]*float64{
		interview.DimensionAccuracy:     resp.Accuracy,
		interview.DimensionCompleteness: resp.Completeness,
		interview.DimensionLogic:        resp.Logic,
		interview.DimensionDepth:        resp.Depth,
	}

	scores := make(map[interview.Dimension]int, len(dims))
	for _, d := range interview.Dimensions() {
		v := dims[d]
		if v == nil {
			return interview.Evaluation{}, fmt.Errorf("%w: %s", errMissingField, d)
		}
		scores[d] = clampScore(*v)
	}

	if resp.TotalScore == nil {
		return interview.Evaluation{}, fmt.Errorf("%w: total_score", errMissingField)
	}

	feedback := resp.Feedback
	if feedback == nil {
		feedback = resp.OverallFeedback
	}
	if feedback == nil {
		return interview.Evaluation{}, fmt.Errorf("%w: feedback", errMissingField)
	}

	suggestions := utils.CompactStrings(resp.Suggestions)

	return interview.Evaluation{
		QuestionID:  questionID,
		Scores:      scores,
		TotalScore:  clampScore(*resp.TotalScore),
		Feedback:    strings.TrimSpace(*feedback),
		Suggestions: suggestions,
	}, nil
}

// scoreObjectHook unwraps {"score": n, "feedback": "..."} into n when a
// number is expected.
func scoreObjectHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Map {
		return data, nil
	}
	target := to
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	if target.Kind() != reflect.Float64 {
		return data, nil
	}

	if m, ok := data.(map[string]any); ok {
		if score, ok := m["score"]; ok {
			return score, nil
		}
	}
	return data, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(raw[start : end+1])
}
