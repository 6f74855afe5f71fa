package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/zaviye/zaviye/internal/config"
)

type geminiModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var newGeminiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GeminiGenerator calls the Google AI Gemini API.
type GeminiGenerator struct {
	models geminiModelsClient
	model  string
	params config.GenerationConfig
}

// NewGeminiGenerator creates a generator from the Gemini credentials.
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(cfg.Gemini.APIKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	slog.Debug("gemini_generator_ready", "model", cfg.Gemini.Model)
	return newGeminiGenerator(client.Models, cfg.Gemini.Model, cfg.Generation), nil
}

func newGeminiGenerator(models geminiModelsClient, model string, params config.GenerationConfig) *GeminiGenerator {
	return &GeminiGenerator{models: models, model: model, params: params}
}

// Generate sends the system instruction and a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error) {
	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.params.Temperature)),
		TopP:            genai.Ptr(float32(g.params.TopP)),
		TopK:            genai.Ptr(float32(g.params.TopK)),
		MaxOutputTokens: int32(g.params.MaxTokens),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Generation{}, classifyGeminiError(err)
	}

	if !hasContent(resp) {
		reason := ""
		if resp != nil && resp.PromptFeedback != nil {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		slog.Warn("gemini_response_blocked", "model", g.model, "reason", reason)
		return Generation{Blocked: true, BlockReason: reason}, nil
	}

	return Generation{Text: visibleText(resp)}, nil
}

func hasContent(resp *genai.GenerateContentResponse) bool {
	return resp != nil &&
		len(resp.Candidates) > 0 &&
		resp.Candidates[0] != nil &&
		resp.Candidates[0].Content != nil &&
		len(resp.Candidates[0].Content.Parts) > 0
}

func visibleText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func classifyGeminiError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	return classifyStatus(code, fmt.Errorf("gemini generate content: %w", err))
}
