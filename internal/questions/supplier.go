// Package questions produces the ordered question set of an interview phase.
package questions

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/spigell/interviewer/internal/corpus"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultFocusAreas    = 3
	defaultPerArea       = 2
	defaultRetrieveLimit = 50
	defaultProjects      = 2
	projectDifficulty    = 4
	designDifficulty     = 5
)

// Config tunes question selection.
type Config struct {
	FocusAreas    int
	PerArea       int
	RetrieveLimit int
	Projects      int
	Bands         map[interview.Level]Band
	Scenarios     map[string]string
}

// Supplier builds phase question sets from the corpus and fixed templates.
// It is shared between sessions.
type Supplier struct {
	retriever corpus.Retriever
	cfg       Config
	logger    *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a supplier. rng drives sampling; pass a seeded source for
// reproducible interviews.
func New(retriever corpus.Retriever, cfg Config, rng *rand.Rand, log *zap.Logger) *Supplier {
	if cfg.FocusAreas <= 0 {
		cfg.FocusAreas = defaultFocusAreas
	}
	if cfg.PerArea <= 0 {
		cfg.PerArea = defaultPerArea
	}
	if cfg.RetrieveLimit <= 0 {
		cfg.RetrieveLimit = defaultRetrieveLimit
	}
	if cfg.Projects <= 0 {
		cfg.Projects = defaultProjects
	}
	if cfg.Bands == nil {
		cfg.Bands = DefaultBands()
	}
	if cfg.Scenarios == nil {
		cfg.Scenarios = DefaultScenarios()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Supplier{
		retriever: retriever,
		cfg:       cfg,
		logger:    logger.OrNop(log),
		rng:       rng,
	}
}

// QuestionsForPhase returns at most count questions for the phase. Scripted
// phases and phases for which nothing can be produced yield an empty list.
func (s *Supplier) QuestionsForPhase(ctx context.Context, phase interview.Phase, profile interview.Profile, count int) []interview.Question {
	if count <= 0 {
		return nil
	}

	var out []interview.Question
	switch phase {
	case interview.PhaseTechnicalBasic:
		out = s.technical(ctx, profile)
	case interview.PhaseProjectDeepDive:
		out = s.projects(profile)
	case interview.PhaseSystemDesign:
		out = []interview.Question{s.design(profile.ScenarioLabel)}
	default:
		return nil
	}

	if len(out) > count {
		out = out[:count]
	}

	s.logger.Debug("questions supplied",
		zap.String(logger.FieldPhase, phase.String()),
		zap.Int("count", len(out)),
	)

	return out
}

func (s *Supplier) technical(ctx context.Context, profile interview.Profile) []interview.Question {
	areas := utils.CompactStrings(profile.FocusAreas)
	if len(areas) > s.cfg.FocusAreas {
		areas = areas[:s.cfg.FocusAreas]
	}

	band, ok := s.cfg.Bands[profile.EstimatedLevel]
	if !ok {
		band = s.cfg.Bands[interview.ParseLevel(string(profile.EstimatedLevel))]
	}

	if s.retriever == nil {
		s.logger.Warn("question corpus is not configured; technical phase has no questions")
		return nil
	}

	selected := make(map[string]struct{})
	var out []interview.Question
	for _, area := range areas {
		records, err := s.retriever.Retrieve(ctx, corpus.Query{
			Category:      area,
			MinDifficulty: band.Min,
			MaxDifficulty: band.Max,
			Limit:         s.cfg.RetrieveLimit,
		})
		if err != nil {
			s.logger.Warn("skipping focus area, corpus query failed",
				zap.String("area", area),
				zap.Error(err),
			)
			continue
		}
		if len(records) == 0 {
			s.logger.Info("skipping focus area, no questions found", zap.String("area", area))
			continue
		}

		records = runFilters(s.logger.With(zap.String("area", area)), []Filter{
			duplicateFilter{},
			askedFilter{asked: selected},
			difficultyFilter{band: band},
		}, records)

		for _, r := range s.sample(records, s.cfg.PerArea) {
			selected[r.ID] = struct{}{}
			out = append(out, fromRecord(r))
		}
	}

	return out
}

// sample picks up to n records without replacement.
func (s *Supplier) sample(records []corpus.Record, n int) []corpus.Record {
	if len(records) == 0 {
		return nil
	}

	picked := make([]corpus.Record, len(records))
	copy(picked, records)

	s.rngMu.Lock()
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	s.rngMu.Unlock()

	if len(picked) > n {
		picked = picked[:n]
	}
	return picked
}

func fromRecord(r corpus.Record) interview.Question {
	difficulty := r.Difficulty
	if difficulty <= 0 {
		difficulty = corpus.DefaultDifficulty
	}
	return interview.Question{
		ID:             r.ID,
		Text:           r.Text,
		Category:       r.Category,
		Difficulty:     difficulty,
		ExpectedPoints: r.ExpectedPoints,
		FollowUps:      r.FollowupPoints,
	}
}

var projectFollowUps = []string{
	"What bottleneck would this approach hit under much higher concurrency?",
	"Did you consider other technical options? Why did you pick this one?",
}

func (s *Supplier) projects(profile interview.Profile) []interview.Question {
	var out []interview.Question
	used := 0
	for _, project := range profile.Projects {
		if used >= s.cfg.Projects {
			break
		}
		name := strings.TrimSpace(project.Name)
		if name == "" {
			continue
		}
		used++

		stack := utils.CompactStrings(project.TechStack)
		if len(stack) > 3 {
			stack = stack[:3]
		}

		choice := fmt.Sprintf("In %s, how did you decide on the technologies you used?", name)
		if len(stack) > 0 {
			choice = fmt.Sprintf("In %s you mentioned %s. Could you walk me through why you chose them?", name, strings.Join(stack, ", "))
		}

		prompts := []string{
			choice,
			fmt.Sprintf("What was the hardest technical challenge in %s, and how did you solve it?", name),
			fmt.Sprintf("If traffic to %s grew 10x, how would you change its architecture?", name),
		}

		for i, text := range prompts {
			out = append(out, interview.Question{
				ID:         fmt.Sprintf("project_%d_%s_%d", used, slug(name), i),
				Text:       text,
				Category:   "project",
				Difficulty: projectDifficulty,
				FollowUps:  projectFollowUps,
			})
		}
	}
	return out
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		case r < 128 && (r >= 'a' && r <= 'z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r >= 128:
			b.WriteRune(r)
		}
	}
	return b.String()
}
