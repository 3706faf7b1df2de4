package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

var _ contractx.Generator = (*ChatGenerator)(nil)

// ChatGenerator runs a two-node eino graph: a chat template carrying the system
// prompt and user text, followed by the chat model.
type ChatGenerator struct {
	runner  compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

func NewChatGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, timeout time.Duration) (*ChatGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add generate prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add generate model node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add generate edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("llm.generate"))
	if err != nil {
		return nil, fmt.Errorf("compile generate graph: %w", err)
	}

	return &ChatGenerator{runner: runner, timeout: timeout}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, systemPrompt string, userText string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	msg, err := g.runner.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"input":  userText,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("%w: model response has no content", contractx.ErrSchemaViolation)
	}
	return content, nil
}
