package routernode

import (
	"context"
	"errors"
	"strings"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

var ErrEmptyQuery = errors.New("query is empty")

// Router is what the pipeline needs from the routing agent.
type Router interface {
	CallLLM(ctx context.Context, systemPrompt, userText string) (string, error)
	SendToAgent(ctx context.Context, recipient string, typ a2a.MessageType, payload map[string]any, conversationID string) *a2a.Message
	Logf(format string, args ...any)
}

type GraphInput struct {
	ConversationID string
	Query          string
}

type GraphState struct {
	ConversationID string
	Query          string

	Analysis       contractx.RoutingAnalysis
	AgentResponses map[string]map[string]any
	AgentsUsed     []string

	Response string
}

// ValidateQuery starts the pipeline. An empty conversation id starts a new conversation.
func ValidateQuery(in GraphInput) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = a2a.NewConversationID()
	}
	return &GraphState{
		ConversationID: convID,
		Query:          query,
		AgentResponses: map[string]map[string]any{},
		AgentsUsed:     []string{},
	}, nil
}
