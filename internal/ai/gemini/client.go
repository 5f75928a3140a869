package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
	providerName        = "gemini"
)

// modelsAPI is the part of genai.Models used by the generator.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements ai.TextGenerator on top of the Google GenAI client.
type Generator struct {
	models    modelsAPI
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxLogLength int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, maxLogLength, log), nil
}

func newGenerator(models modelsAPI, model string, maxLogLength int, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Generator{
		models:    models,
		model:     model,
		logger:    logger.WithCommonFields(log, providerName, model),
		maxLogLen: maxLogLength,
	}
}

// Generate sends the conversation to Gemini and returns the concatenated text
// of the response candidates. System messages become the system instruction.
func (g *Generator) Generate(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	config := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		t := *opts.Temperature
		config.Temperature = &t
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}

		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, text)
		case ai.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleModel),
				Parts: []*genai.Part{{Text: text}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: []*genai.Part{{Text: text}},
			})
		}
	}

	if len(contents) == 0 {
		return "", errors.New("prompt must not be empty")
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("messages", len(contents)),
		zap.String("prompt_preview", utils.TruncateForLog(contents[len(contents)-1].Parts[0].Text, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
