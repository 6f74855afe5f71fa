package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zaviye/zaviye/internal/config"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = cfg
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}},
	}
}

func testParams() config.GenerationConfig {
	return config.GenerationConfig{Temperature: 0.7, TopP: 0.95, TopK: 40, MaxTokens: 2048}
}

func TestGeminiGenerateSendsSystemInstructionAndParams(t *testing.T) {
	models := &fakeModels{resp: textResponse(&genai.Part{Text: "hello"})}
	gen := newGeminiGenerator(models, "gemini-2.5-flash", testParams())

	out, err := gen.Generate(context.Background(), "be terse", "hi")
	require.NoError(t, err)
	require.Equal(t, "hello", out.Text)
	require.False(t, out.Blocked)

	require.Equal(t, "gemini-2.5-flash", models.model)
	require.Len(t, models.contents, 1)
	require.Equal(t, "hi", models.contents[0].Parts[0].Text)
	require.Equal(t, "be terse", models.config.SystemInstruction.Parts[0].Text)
	require.InDelta(t, 0.7, *models.config.Temperature, 1e-6)
	require.InDelta(t, 0.95, *models.config.TopP, 1e-6)
	require.InDelta(t, 40, *models.config.TopK, 1e-6)
	require.EqualValues(t, 2048, models.config.MaxOutputTokens)
}

func TestGeminiGenerateSkipsThoughtParts(t *testing.T) {
	models := &fakeModels{resp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "answer"},
	)}
	gen := newGeminiGenerator(models, "m", testParams())

	out, err := gen.Generate(context.Background(), "", "q")
	require.NoError(t, err)
	require.Equal(t, "answer", out.Text)
	require.Nil(t, models.config.SystemInstruction)
}

func TestGeminiGenerateBlocked(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}}
	gen := newGeminiGenerator(models, "m", testParams())

	out, err := gen.Generate(context.Background(), "", "q")
	require.NoError(t, err)
	require.True(t, out.Blocked)
	require.Equal(t, "My apologies, but the response was blocked due to SAFETY. Please try rephrasing your message.", out.Reply())
}

func TestGeminiGenerateBlockedWithoutReason(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{}}
	gen := newGeminiGenerator(models, "m", testParams())

	out, err := gen.Generate(context.Background(), "", "q")
	require.NoError(t, err)
	require.Equal(t, "My apologies, but the response was blocked due to safety settings. Please try rephrasing your message.", out.Reply())
}

func TestGeminiGenerateEmptyText(t *testing.T) {
	models := &fakeModels{resp: textResponse(&genai.Part{Text: ""})}
	gen := newGeminiGenerator(models, "m", testParams())

	out, err := gen.Generate(context.Background(), "", "q")
	require.NoError(t, err)
	require.False(t, out.Blocked)
	require.Equal(t, "No response generated.", out.Reply())
}

func TestGeminiErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", genai.APIError{Code: 401, Message: "bad key"}, ErrUpstreamUnauthorized},
		{"forbidden", genai.APIError{Code: 403}, ErrUpstreamUnauthorized},
		{"throttled", genai.APIError{Code: 429}, ErrUpstreamRateLimited},
		{"pointer", &genai.APIError{Code: 429}, ErrUpstreamRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := newGeminiGenerator(&fakeModels{err: tc.err}, "m", testParams())
			_, err := gen.Generate(context.Background(), "", "q")
			require.ErrorIs(t, err, tc.want)
		})
	}

	gen := newGeminiGenerator(&fakeModels{err: errors.New("boom")}, "m", testParams())
	_, err := gen.Generate(context.Background(), "", "q")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUpstreamUnauthorized)
	require.NotErrorIs(t, err, ErrUpstreamRateLimited)
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), config.AIConfig{Provider: config.ProviderGemini})
	require.Error(t, err)
}

func TestNewGeneratorRejectsUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.AIConfig{Provider: "openai"})
	require.Error(t, err)
}
