package corpus

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// FileStore is a read-only corpus loaded from a YAML or JSON question bank.
// The file is either a list of records or a mapping with a "questions" list.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	records  []Record
	byID     map[string]int
}

// NewFileStore returns a store reading path lazily on the first query.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path)}
}

// NewMemoryStore returns a store serving the given records.
func NewMemoryStore(records []Record) *FileStore {
	s := &FileStore{}
	s.loadOnce.Do(func() { s.index(records) })
	return s
}

// Load reads and indexes the backing file. It is safe to call repeatedly.
func (s *FileStore) Load() error {
	s.loadOnce.Do(func() {
		if s.path == "" {
			s.loadErr = fmt.Errorf("%w: question bank path is not configured", ErrUnavailable)
			return
		}

		data, err := os.ReadFile(s.path)
		if err != nil {
			s.loadErr = fmt.Errorf("%w: reading question bank %q: %v", ErrUnavailable, s.path, err)
			return
		}

		records, err := parseRecords(data)
		if err != nil {
			s.loadErr = fmt.Errorf("%w: parsing question bank %q: %v", ErrUnavailable, s.path, err)
			return
		}

		s.index(records)
	})

	return s.loadErr
}

func parseRecords(data []byte) ([]Record, error) {
	var list []Record
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Questions []Record `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

func (s *FileStore) index(records []Record) {
	s.records = make([]Record, 0, len(records))
	s.byID = make(map[string]int, len(records))

	for _, r := range records {
		r.Text = strings.TrimSpace(r.Text)
		if r.Text == "" {
			continue
		}
		if r.Difficulty <= 0 {
			r.Difficulty = DefaultDifficulty
		}
		if r.ID == "" {
			r.ID = fmt.Sprintf("q%04d", len(s.records)+1)
		}
		s.byID[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
}

// Retrieve returns up to q.Limit records in file order whose category or one
// of whose tags contains q.Category as a whole word, case-insensitively, and
// whose difficulty is inside the query range.
func (s *FileStore) Retrieve(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Category))
	var out []Record
	for _, r := range s.records {
		if needle != "" && !matches(r, needle) {
			continue
		}
		if !q.Accepts(r.Difficulty) {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}

	return out, nil
}

func matches(r Record, needle string) bool {
	if containsWords(r.Category, needle) {
		return true
	}
	for _, tag := range r.Tags {
		if containsWords(tag, needle) {
			return true
		}
	}
	return false
}

// containsWords reports whether the words of needle appear in label as a
// contiguous run of whole words, so "go" matches "Go concurrency" but not
// "mongodb".
func containsWords(label, needle string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == needle {
		return true
	}

	words := strings.FieldsFunc(label, isSeparator)
	want := strings.FieldsFunc(needle, isSeparator)
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		if slices.Equal(words[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// isSeparator keeps '+' and '#' inside words for labels like "c++" and "c#".
func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
}

// Reference returns the stored reference answer for a question.
func (s *FileStore) Reference(_ context.Context, questionID string) (string, bool) {
	if s.Load() != nil {
		return "", false
	}
	idx, ok := s.byID[questionID]
	if !ok {
		return "", false
	}
	ref := strings.TrimSpace(s.records[idx].Reference)
	return ref, ref != ""
}

// Len returns the number of indexed records.
func (s *FileStore) Len() int {
	if s.Load() != nil {
		return 0
	}
	return len(s.records)
}
