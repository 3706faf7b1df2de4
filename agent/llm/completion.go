package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/openrouter"
)

var _ contractx.Generator = (*CompletionGenerator)(nil)

// CompletionGenerator calls the chat completions endpoint directly through the OpenAI SDK.
type CompletionGenerator struct {
	client *openaisdk.Client
	cfg    openrouterx.Config
}

func NewCompletionGenerator(cfg openrouterx.Config) (*CompletionGenerator, error) {
	client := openrouterx.NewClient(cfg)
	if client == nil {
		return nil, fmt.Errorf("%w: api key is required for the openai backend", contractx.ErrValidation)
	}
	return &CompletionGenerator{client: client, cfg: cfg}, nil
}

func (g *CompletionGenerator) Generate(ctx context.Context, systemPrompt string, userText string) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(strings.TrimSpace(g.cfg.Model)),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(userText),
		},
		Temperature: openaisdk.Float(float64(g.cfg.Temperature)),
	}
	if g.cfg.MaxCompletionToken != nil && *g.cfg.MaxCompletionToken > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(*g.cfg.MaxCompletionToken))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", contractx.ErrSchemaViolation)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: chat completion has no content", contractx.ErrSchemaViolation)
	}
	return content, nil
}
