package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"github.com/zaviye/zaviye/internal/config"
)

const finishReasonContentFilter = "content_filter"

// Service generates text through a Volcengine Ark chat model.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates an Ark-backed generator.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newServiceWithModel(ctx, chatModel)
}

func newServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
	}, nil
}

// Generate runs the system prompt and user turn through the chain.
func (s *Service) Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"query":  userPrompt,
	})
	if err != nil {
		return Generation{}, classifyArkError(fmt.Errorf("failed to run AI chain: %w", err))
	}

	if response.ResponseMeta != nil && response.ResponseMeta.FinishReason == finishReasonContentFilter {
		slog.Warn("ark_response_blocked", "finish_reason", response.ResponseMeta.FinishReason)
		return Generation{Blocked: true, BlockReason: "content filtering"}, nil
	}

	slog.Debug("ark_generated", "length", len(response.Content))
	return Generation{Text: response.Content}, nil
}

func classifyArkError(err error) error {
	var apiErr *arkmodel.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *arkmodel.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return err
}
