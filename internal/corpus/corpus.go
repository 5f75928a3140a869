// Package corpus provides the question retrieval capability consumed by the
// question supplier.
package corpus

import (
	"context"
	"errors"
)

// DefaultDifficulty is assumed for records without a difficulty label.
const DefaultDifficulty = 3

// ErrUnavailable reports that the corpus could not be queried.
var ErrUnavailable = errors.New("corpus unavailable")

// Record is a single question stored in the corpus.
type Record struct {
	ID             string   `yaml:"id" json:"id"`
	Text           string   `yaml:"text" json:"text"`
	Category       string   `yaml:"category" json:"category"`
	Tags           []string `yaml:"tags" json:"tags"`
	Difficulty     int      `yaml:"difficulty" json:"difficulty"`
	FollowupPoints []string `yaml:"followup_points" json:"followup_points"`
	ExpectedPoints []string `yaml:"expected_points" json:"expected_points"`
	Reference      string   `yaml:"reference_answer" json:"reference_answer"`
}

// Query filters the corpus by category or tag and, when set, by an inclusive
// difficulty range. Limit applies after every other filter.
type Query struct {
	Category      string
	MinDifficulty int
	MaxDifficulty int
	Limit         int
}

// Accepts reports whether a record of the given difficulty is inside the
// query's range. Zero bounds are open.
func (q Query) Accepts(difficulty int) bool {
	if q.MinDifficulty > 0 && difficulty < q.MinDifficulty {
		return false
	}
	if q.MaxDifficulty > 0 && difficulty > q.MaxDifficulty {
		return false
	}
	return true
}

// Retriever returns questions matching a query. An empty result is not an error.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]Record, error)
}

// ReferenceProvider is implemented by retrievers that can return a stored
// reference answer for a question id.
type ReferenceProvider interface {
	Reference(ctx context.Context, questionID string) (string, bool)
}
