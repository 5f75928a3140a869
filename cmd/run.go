package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/ai/gemini"
	"github.com/spigell/interviewer/internal/config"
	"github.com/spigell/interviewer/internal/corpus"
	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/followup"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/orchestrator"
	"github.com/spigell/interviewer/internal/profile"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/render"
	"github.com/spigell/interviewer/internal/report"
	"github.com/spigell/interviewer/internal/secrets"
	"github.com/spigell/interviewer/internal/session"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptContinue = "Continue the interview"
	PromptFinish   = "Finish and show the report"
	PromptQuit     = "Quit without a report"
)

var errQuit = errors.New("quit requested")

var interruptPrompt = promptui.Select{
	Label: "Interview paused",
	Items: []string{PromptContinue, PromptFinish, PromptQuit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive mock interview",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("profile", "p", "", "candidate profile file (yaml or json)")
	runCmd.Flags().StringP("corpus", "c", "", "question bank file (yaml or json)")
	runCmd.Flags().StringP("output", "o", "", "write the final report as json to this file")

	viper.BindPFlag("profile", runCmd.Flags().Lookup("profile"))
	viper.BindPFlag("corpus.file", runCmd.Flags().Lookup("corpus"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interviewer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(cfg), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	candidate, err := profile.Load(cfg.Profile)
	if err != nil {
		logger.Fatal("loading candidate profile", zap.Error(err),
			zap.String("hint", "set the 'profile' key in the configuration file or pass --profile"))
	}

	bank, err := loadCorpus(cfg.Corpus, logger)
	if err != nil {
		logger.Fatal("loading question bank", zap.Error(err))
	}

	orch := newOrchestrator(ctx, cfg, bank, logger)

	id, err := orch.Start(ctx, candidate)
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	if err := interact(ctx, orch, id); err != nil {
		if errors.Is(err, errQuit) {
			_ = orch.End(ctx, id)
			logger.Info("exiting", zap.String("reason", "quit requested"))
			return
		}
		logger.Fatal("interview failed", zap.Error(err))
	}

	rep, err := orch.Report(ctx, id)
	if err != nil {
		if errors.Is(err, report.ErrEmptySession) {
			_ = orch.End(ctx, id)
			logger.Info("exiting", zap.String("reason", "no answers were scored"))
			return
		}
		logger.Fatal("building the report", zap.Error(err))
	}

	fmt.Println(render.Report(rep))

	if output := strings.TrimSpace(viper.GetString("output")); output != "" {
		if err := writeReport(output, rep); err != nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
		logger.Info("report written", zap.String("filename", output))
	}
}

// interact runs the question and answer loop until the interview completes or
// the candidate leaves it.
func interact(ctx context.Context, orch *orchestrator.Orchestrator, id string) error {
	for {
		action, err := orch.NextAction(ctx, id)
		if err != nil {
			return err
		}

		fmt.Println(render.Action(action))
		if action.Type == interview.ActionCompleted {
			return nil
		}

		answer, err := (&promptui.Prompt{Label: "Your answer"}).Run()
		if err != nil {
			if !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrEOF) {
				return err
			}

			_, choice, err := interruptPrompt.Run()
			if err != nil {
				return errQuit
			}
			switch choice {
			case PromptContinue:
				continue
			case PromptFinish:
				return nil
			default:
				return errQuit
			}
		}

		result, err := orch.ProcessAnswer(ctx, id, answer)
		if err != nil {
			return err
		}
		if out := render.Result(result); out != "" {
			fmt.Println(out)
		}
	}
}

func loadCorpus(cfg config.CorpusConfig, logger *zap.Logger) (*corpus.FileStore, error) {
	file := strings.TrimSpace(cfg.File)
	if file == "" {
		logger.Warn("no question bank configured, technical questions will be skipped",
			zap.String("hint", "set corpus.file or pass --corpus"))
		return corpus.NewMemoryStore(nil), nil
	}

	store := corpus.NewFileStore(file)
	if err := store.Load(); err != nil {
		return nil, err
	}

	logger.Info("question bank loaded", zap.String("filename", file), zap.Int("questions", store.Len()))
	return store, nil
}

func newOrchestrator(ctx context.Context, cfg *config.Config, bank *corpus.FileStore, logger *zap.Logger) *orchestrator.Orchestrator {
	var generator ai.TextGenerator
	if cfg.AI != nil && cfg.AI.Enabled {
		g, err := newGenerator(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("answers will get default scores", zap.Error(err))
		} else {
			generator = g
		}
	}

	var narrator ai.TextGenerator
	if cfg.AI != nil && cfg.AI.Narrative {
		narrator = generator
	}

	return orchestrator.New(
		session.NewStore(cfg.Sessions.Size, cfg.Sessions.IdleTTL, logger),
		questions.New(bank, cfg.SupplierConfig(), cfg.Rand(), logger),
		evaluator.New(generator, cfg.EvaluatorOptions(), logger),
		followup.NewPolicy(cfg.PolicyTemplates(), cfg.Rand()),
		report.NewAggregator(narrator, logger),
		orchestrator.Options{
			MaxFollowups:      cfg.FollowUp.MaxFollowups,
			QuestionsPerPhase: cfg.Interview.QuestionsPerPhase,
			Clock:             cfg.ClockConfig(),
			References:        bank,
		},
		logger,
	)
}

func newGenerator(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxLogLength, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("text generation enabled",
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return generator, nil
}

func writeReport(path string, rep interview.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report to %q: %w", path, err)
	}
	return nil
}

// redacted returns a copy of cfg safe to log.
func redacted(cfg *config.Config) config.Config {
	out := *cfg
	if cfg.AI != nil && cfg.AI.Gemini != nil && cfg.AI.Gemini.APIKey != "" {
		aiCfg := *cfg.AI
		gem := *cfg.AI.Gemini
		gem.APIKey = "***"
		aiCfg.Gemini = &gem
		out.AI = &aiCfg
	}
	return out
}
