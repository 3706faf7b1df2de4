package contract

import (
	"context"
	"encoding/json"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
)

// Generator is the text-generation capability consumed by agents.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, userText string) (string, error)
}

// Agent is implemented by every addressable agent. A nil payload with a nil
// error means the agent has nothing to answer.
type Agent interface {
	Name() string
	Process(ctx context.Context, msg a2a.Message) (map[string]any, error)
}

// Sender performs one point-to-point round trip over the bus.
type Sender interface {
	SendToAgent(ctx context.Context, recipient string, typ a2a.MessageType, payload map[string]any, conversationID string) *a2a.Message
}

// ToolCaller invokes a named remote tool and returns its decoded JSON result.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// Notifier publishes out-of-band events such as escalations.
type Notifier interface {
	Publish(ctx context.Context, topic string, event any) error
}
