package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-analyzer/internal/logger"
)

const (
	defaultModel = "gemini-2.5-flash"
	providerName = "gemini"
)

// ErrEmptyResponse is returned when the response carries no candidate, no
// content part, or no text in the first candidate.
var ErrEmptyResponse = errors.New("model returned no text content")

// modelsAPI is satisfied by *genai.Models.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client and performs single blocking
// generate calls. It is safe for concurrent use.
type Generator struct {
	models    modelsAPI
	modelName string
	config    *genai.GenerateContentConfig
	logger    *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*Generator, error) {
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

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		models:    client.Models,
		modelName: model,
		logger:    logger.WithCommonFields(log, providerName, model),
	}, nil
}

// Generate sends the parts as a single user turn and returns the text of the
// first content part of the first candidate.
func (g *Generator) Generate(ctx context.Context, parts ...*genai.Part) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	if len(parts) == 0 {
		return "", errors.New("at least one content part is required")
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}

	resp, err := g.models.GenerateContent(ctx, g.modelName, contents, g.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text, ok := firstText(resp)
	if !ok {
		g.logger.Debug("gemini response without text", zap.Int("candidates", candidateCount(resp)))
		return "", ErrEmptyResponse
	}

	return text, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", false
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if text := strings.TrimSpace(part.Text); text != "" {
			return text, true
		}
	}

	return "", false
}

func candidateCount(resp *genai.GenerateContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Candidates)
}
