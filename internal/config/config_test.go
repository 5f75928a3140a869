package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/interviewer/internal/followup"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, doc string) (*Config, error) {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))

	return Load(v)
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	clock := cfg.ClockConfig()
	require.Equal(t, 45*time.Minute, clock.Total)
	require.Equal(t, interview.DefaultPhaseBudgets(), clock.Budgets)

	supplier := cfg.SupplierConfig()
	require.Equal(t, 3, supplier.FocusAreas)
	require.Equal(t, 2, supplier.PerArea)
	require.Len(t, supplier.Bands, 3)

	templates := cfg.PolicyTemplates()
	for _, trigger := range followup.Triggers() {
		require.NotEmpty(t, templates[trigger], "trigger %s", trigger)
	}

	opts := cfg.EvaluatorOptions()
	require.InDelta(t, 0.2, opts.Temperature, 1e-6)
	require.Equal(t, 1000, opts.MaxAnswerRunes)
}

func TestLoadMergesOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, `
profile: candidate.yaml
interview:
  total: 60m
  phase-budgets:
    technical: 30m
followup:
  max-followups: 3
  templates:
    deep:
      - "How does {concept} behave under load?"
questions:
  seed: 42
ai:
  enabled: true
  gemini:
    api-key-file: /run/secrets/gemini
`)
	require.NoError(t, err)

	require.Equal(t, "candidate.yaml", cfg.Profile)
	require.Equal(t, 60*time.Minute, cfg.Interview.Total)

	budgets, err := cfg.PhaseBudgets()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, budgets[interview.PhaseTechnicalBasic])
	require.Equal(t, 12*time.Minute, budgets[interview.PhaseProjectDeepDive])

	templates, err := cfg.Templates()
	require.NoError(t, err)
	require.Equal(t, []string{"How does {concept} behave under load?"}, templates[followup.TriggerDeep])
	require.NotEmpty(t, templates[followup.TriggerWrong])

	require.Equal(t, 3, cfg.FollowUp.MaxFollowups)
	require.True(t, cfg.AI.Enabled)
	require.Equal(t, "/run/secrets/gemini", cfg.AI.Gemini.APIKeyFile)
	require.Equal(t, "gemini-2.5-flash", cfg.AI.Gemini.Model)

	a, b := cfg.Rand(), cfg.Rand()
	require.Equal(t, a.Uint64(), b.Uint64())
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing phase budget",
			mutate: func(c *Config) { delete(c.Interview.PhaseBudgets, "closing") },
			want:   "missing budget for phase closing",
		},
		{
			name:   "unknown phase",
			mutate: func(c *Config) { c.Interview.PhaseBudgets["lunch"] = time.Minute },
			want:   `unknown phase "lunch"`,
		},
		{
			name:   "missing template",
			mutate: func(c *Config) { c.FollowUp.Templates["wrong"] = nil },
			want:   "missing phrases for trigger wrong",
		},
		{
			name:   "unknown trigger",
			mutate: func(c *Config) { c.FollowUp.Templates["bored"] = []string{"?"} },
			want:   `unknown trigger "bored"`,
		},
		{
			name:   "missing band",
			mutate: func(c *Config) { delete(c.Questions.Bands, "senior") },
			want:   "missing band for level senior",
		},
		{
			name:   "band out of range",
			mutate: func(c *Config) { c.Questions.Bands["junior"] = BandConfig{Min: 0, Max: 2} },
			want:   "invalid range 0..2",
		},
		{
			name:   "thresholds inverted",
			mutate: func(c *Config) { c.Interview.ForceThreshold = 10 * time.Minute },
			want:   "force-threshold must not exceed",
		},
		{
			name:   "no fallback scenario",
			mutate: func(c *Config) { delete(c.Questions.Scenarios, "flash-sale") },
			want:   `"flash-sale" fallback`,
		},
		{
			name:   "unsupported provider",
			mutate: func(c *Config) { c.AI.Enabled = true; c.AI.Provider = "openai" },
			want:   "unsupported ai provider: openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFailsOnInvalidFile(t *testing.T) {
	t.Parallel()

	_, err := load(t, `
questions:
  bands:
    junior:
      min: 4
      max: 2
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "questions.bands.junior")
}
