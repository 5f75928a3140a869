package questions

import (
	"strings"

	"github.com/spigell/interviewer/internal/corpus"
	"github.com/spigell/interviewer/internal/interview"
	"go.uber.org/zap"
)

// Band is an inclusive difficulty range on the 1-5 scale.
type Band struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

// Contains reports whether difficulty falls inside the band.
func (b Band) Contains(difficulty int) bool {
	return difficulty >= b.Min && difficulty <= b.Max
}

// DefaultBands returns the difficulty bands per level.
func DefaultBands() map[interview.Level]Band {
	return map[interview.Level]Band{
		interview.LevelJunior: {Min: 1, Max: 2},
		interview.LevelMid:    {Min: 2, Max: 4},
		interview.LevelSenior: {Min: 3, Max: 5},
	}
}

// Filter is a single step of the record filtering pipeline.
type Filter interface {
	Name() string
	Apply(records []corpus.Record) []corpus.Record
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// runFilters applies the steps in order and logs how many records each step dropped.
func runFilters(logger *zap.Logger, steps []Filter, records []corpus.Record) []corpus.Record {
	for _, step := range steps {
		initial := len(records)
		records = step.Apply(records)
		info := Step{Initial: initial, Dropped: initial - len(records), Left: len(records)}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		if len(records) == 0 {
			break
		}
	}
	return records
}

type difficultyFilter struct {
	band Band
}

func (f difficultyFilter) Name() string { return "difficulty" }

func (f difficultyFilter) Apply(records []corpus.Record) []corpus.Record {
	return keep(records, func(r corpus.Record) bool {
		d := r.Difficulty
		if d <= 0 {
			d = corpus.DefaultDifficulty
		}
		return f.band.Contains(d)
	})
}

type askedFilter struct {
	asked map[string]struct{}
}

func (f askedFilter) Name() string { return "already_asked" }

func (f askedFilter) Apply(records []corpus.Record) []corpus.Record {
	if len(f.asked) == 0 {
		return records
	}
	return keep(records, func(r corpus.Record) bool {
		_, seen := f.asked[r.ID]
		return !seen
	})
}

type duplicateFilter struct{}

func (duplicateFilter) Name() string { return "duplicates" }

func (duplicateFilter) Apply(records []corpus.Record) []corpus.Record {
	seen := make(map[string]struct{}, len(records))
	return keep(records, func(r corpus.Record) bool {
		key := r.ID
		if key == "" {
			key = strings.ToLower(r.Text)
		}
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}

func keep(records []corpus.Record, pred func(corpus.Record) bool) []corpus.Record {
	out := make([]corpus.Record, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
