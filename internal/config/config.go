// Package config holds the interviewer configuration and its validation.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/followup"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/session"
)

const (
	minDifficulty = 1
	maxDifficulty = 5
)

type Config struct {
	Profile   string          `mapstructure:"profile"`
	Interview InterviewConfig `mapstructure:"interview"`
	Questions QuestionsConfig `mapstructure:"questions"`
	FollowUp  FollowUpConfig  `mapstructure:"followup"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	AI        *AIConfig       `mapstructure:"ai"`
}

type InterviewConfig struct {
	Total             time.Duration            `mapstructure:"total"`
	WarnThreshold     time.Duration            `mapstructure:"warn-threshold"`
	ForceThreshold    time.Duration            `mapstructure:"force-threshold"`
	PhaseBudgets      map[string]time.Duration `mapstructure:"phase-budgets"`
	QuestionsPerPhase int                      `mapstructure:"questions-per-phase"`
}

type BandConfig struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

type QuestionsConfig struct {
	FocusAreas    int                   `mapstructure:"focus-areas"`
	PerArea       int                   `mapstructure:"per-area"`
	RetrieveLimit int                   `mapstructure:"retrieve-limit"`
	Projects      int                   `mapstructure:"projects"`
	Seed          uint64                `mapstructure:"seed"`
	Bands         map[string]BandConfig `mapstructure:"bands"`
	Scenarios     map[string]string     `mapstructure:"scenarios"`
}

type FollowUpConfig struct {
	MaxFollowups int                 `mapstructure:"max-followups"`
	Templates    map[string][]string `mapstructure:"templates"`
}

type SessionsConfig struct {
	Size    int           `mapstructure:"size"`
	IdleTTL time.Duration `mapstructure:"idle-ttl"`
}

type CorpusConfig struct {
	File string `mapstructure:"file"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxAnswerLength int           `mapstructure:"max-answer-length"`
	Narrative       bool          `mapstructure:"narrative"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// Default returns the stock 45 minute interview configuration.
func Default() *Config {
	budgets := make(map[string]time.Duration)
	for phase, d := range interview.DefaultPhaseBudgets() {
		budgets[phase.String()] = d
	}

	bands := make(map[string]BandConfig)
	for level, b := range questions.DefaultBands() {
		bands[string(level)] = BandConfig{Min: b.Min, Max: b.Max}
	}

	templates := make(map[string][]string)
	for trigger, phrases := range followup.DefaultTemplates() {
		templates[string(trigger)] = append([]string(nil), phrases...)
	}

	return &Config{
		Interview: InterviewConfig{
			Total:             interview.DefaultTotalDuration,
			WarnThreshold:     interview.DefaultWarnThreshold,
			ForceThreshold:    interview.DefaultForceThreshold,
			PhaseBudgets:      budgets,
			QuestionsPerPhase: 5,
		},
		Questions: QuestionsConfig{
			FocusAreas:    3,
			PerArea:       2,
			RetrieveLimit: 50,
			Projects:      2,
			Bands:         bands,
			Scenarios:     questions.DefaultScenarios(),
		},
		FollowUp: FollowUpConfig{
			MaxFollowups: followup.DefaultMaxFollowups,
			Templates:    templates,
		},
		Sessions: SessionsConfig{
			Size:    session.DefaultSize,
			IdleTTL: session.DefaultIdleTTL,
		},
		AI: &AIConfig{
			Provider:        "gemini",
			Temperature:     0.2,
			MaxAnswerLength: 1000,
			Narrative:       true,
			Gemini:          &GeminiConfig{Model: "gemini-2.5-flash", MaxLogLength: 200},
		},
	}
}

// Load decodes v on top of Default and validates the result. Maps are merged
// key by key, so a file may override a single phase budget or template.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	defaults := cfg.Interview.PhaseBudgets
	cfg.Interview.PhaseBudgets = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Interview.PhaseBudgets = mergeBudgets(defaults, cfg.Interview.PhaseBudgets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeBudgets applies overrides keyed by any phase alias onto the canonical
// default keys. Unknown names are kept for Validate to report.
func mergeBudgets(defaults, overrides map[string]time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(defaults)+len(overrides))
	for name, d := range defaults {
		out[name] = d
	}
	for name, d := range overrides {
		if phase, err := interview.ParsePhase(name); err == nil {
			name = phase.String()
		}
		out[name] = d
	}
	return out
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Interview.Total <= 0 {
		errs = append(errs, errors.New("interview.total must be positive"))
	}
	if c.Interview.ForceThreshold <= 0 || c.Interview.WarnThreshold <= 0 {
		errs = append(errs, errors.New("interview thresholds must be positive"))
	}
	if c.Interview.ForceThreshold > c.Interview.WarnThreshold {
		errs = append(errs, errors.New("interview.force-threshold must not exceed interview.warn-threshold"))
	}
	if c.Interview.QuestionsPerPhase <= 0 {
		errs = append(errs, errors.New("interview.questions-per-phase must be positive"))
	}

	if _, err := c.PhaseBudgets(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Bands(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Templates(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Questions.Scenarios) == 0 {
		errs = append(errs, errors.New("questions.scenarios must not be empty"))
	} else if strings.TrimSpace(c.Questions.Scenarios[questions.ScenarioFlashSale]) == "" {
		errs = append(errs, fmt.Errorf("questions.scenarios must define the %q fallback", questions.ScenarioFlashSale))
	}

	if c.FollowUp.MaxFollowups <= 0 {
		errs = append(errs, errors.New("followup.max-followups must be positive"))
	}

	if c.AI != nil && c.AI.Enabled {
		provider := strings.ToLower(strings.TrimSpace(c.AI.Provider))
		if provider != "" && provider != "gemini" {
			errs = append(errs, fmt.Errorf("unsupported ai provider: %s", c.AI.Provider))
		}
		if c.AI.Gemini == nil {
			errs = append(errs, errors.New("ai.gemini section is required when ai is enabled"))
		}
	}

	return errors.Join(errs...)
}

// PhaseBudgets converts the budget table. Every timed phase needs a positive budget.
func (c *Config) PhaseBudgets() (interview.PhaseBudgets, error) {
	budgets := make(interview.PhaseBudgets, len(c.Interview.PhaseBudgets))
	for name, d := range c.Interview.PhaseBudgets {
		phase, err := interview.ParsePhase(name)
		if err != nil {
			return nil, fmt.Errorf("interview.phase-budgets: %w", err)
		}
		budgets[phase] = d
	}

	for _, phase := range interview.TimedPhases() {
		if budgets[phase] <= 0 {
			return nil, fmt.Errorf("interview.phase-budgets: missing budget for phase %s", phase)
		}
	}

	return budgets, nil
}

// Bands converts the difficulty bands. Every level needs a band within 1..5.
func (c *Config) Bands() (map[interview.Level]questions.Band, error) {
	bands := make(map[interview.Level]questions.Band, len(c.Questions.Bands))
	for name, b := range c.Questions.Bands {
		if b.Min < minDifficulty || b.Max > maxDifficulty || b.Min > b.Max {
			return nil, fmt.Errorf("questions.bands.%s: invalid range %d..%d", name, b.Min, b.Max)
		}
		bands[interview.ParseLevel(name)] = questions.Band{Min: b.Min, Max: b.Max}
	}

	for _, level := range []interview.Level{interview.LevelJunior, interview.LevelMid, interview.LevelSenior} {
		if _, ok := bands[level]; !ok {
			return nil, fmt.Errorf("questions.bands: missing band for level %s", level)
		}
	}

	return bands, nil
}

// Templates converts the follow-up phrases. Every trigger needs at least one phrase.
func (c *Config) Templates() (followup.Templates, error) {
	templates := make(followup.Templates, len(c.FollowUp.Templates))
	for name, phrases := range c.FollowUp.Templates {
		trigger := followup.Trigger(strings.ToLower(strings.TrimSpace(name)))
		if !isTrigger(trigger) {
			return nil, fmt.Errorf("followup.templates: unknown trigger %q", name)
		}
		for _, p := range phrases {
			if p = strings.TrimSpace(p); p != "" {
				templates[trigger] = append(templates[trigger], p)
			}
		}
	}

	for _, trigger := range followup.Triggers() {
		if len(templates[trigger]) == 0 {
			return nil, fmt.Errorf("followup.templates: missing phrases for trigger %s", trigger)
		}
	}

	return templates, nil
}

func isTrigger(t followup.Trigger) bool {
	for _, known := range followup.Triggers() {
		if t == known {
			return true
		}
	}
	return false
}

// PolicyTemplates assumes a validated config.
func (c *Config) PolicyTemplates() followup.Templates {
	templates, _ := c.Templates()
	return templates
}

// ClockConfig assumes a validated config.
func (c *Config) ClockConfig() interview.ClockConfig {
	budgets, _ := c.PhaseBudgets()
	return interview.ClockConfig{
		Total:          c.Interview.Total,
		WarnThreshold:  c.Interview.WarnThreshold,
		ForceThreshold: c.Interview.ForceThreshold,
		Budgets:        budgets,
	}
}

// SupplierConfig assumes a validated config.
func (c *Config) SupplierConfig() questions.Config {
	bands, _ := c.Bands()
	return questions.Config{
		FocusAreas:    c.Questions.FocusAreas,
		PerArea:       c.Questions.PerArea,
		RetrieveLimit: c.Questions.RetrieveLimit,
		Projects:      c.Questions.Projects,
		Bands:         bands,
		Scenarios:     c.Questions.Scenarios,
	}
}

func (c *Config) EvaluatorOptions() evaluator.Options {
	opts := evaluator.Options{}
	if c.AI != nil {
		opts.Temperature = c.AI.Temperature
		opts.MaxAnswerRunes = c.AI.MaxAnswerLength
		if c.AI.Gemini != nil {
			opts.MaxLogLength = c.AI.Gemini.MaxLogLength
		}
	}
	return opts
}

// Rand returns the random source for question sampling and follow-up
// phrasing. A zero seed yields a randomly seeded source.
func (c *Config) Rand() *rand.Rand {
	if c.Questions.Seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(c.Questions.Seed, c.Questions.Seed))
}
