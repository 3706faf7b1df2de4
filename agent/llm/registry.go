package llm

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

// Generators holds one generator per agent.
type Generators struct {
	Router       contractx.Generator
	CustomerData contractx.Generator
	Support      contractx.Generator
}

// Unavailable always fails; agents then take their deterministic paths.
type Unavailable struct{ Reason string }

func (u Unavailable) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: %s", contractx.ErrModelInvoke, u.Reason)
}

func NewGenerators(ctx context.Context, cfg Config) (Generators, error) {
	if err := cfg.Validate(); err != nil {
		return Generators{}, err
	}
	if !cfg.Enabled() {
		off := Unavailable{Reason: "llm is not configured"}
		return Generators{Router: off, CustomerData: off, Support: off}, nil
	}

	build := func(agentType contractx.AgentType) (contractx.Generator, error) {
		endpoint := cfg.OpenRouterFor(agentType)

		var gen contractx.Generator
		switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
		case BackendOpenAI:
			g, err := NewCompletionGenerator(endpoint)
			if err != nil {
				return nil, err
			}
			gen = g
		default:
			chatModel, err := endpoint.ChatModel(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
			}
			g, err := NewChatGenerator(ctx, chatModel, cfg.Timeout)
			if err != nil {
				return nil, err
			}
			gen = g
		}
		return NewBreakerGenerator(string(agentType), gen, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout), nil
	}

	router, err := build(contractx.AgentTypeRouter)
	if err != nil {
		return Generators{}, err
	}
	customerData, err := build(contractx.AgentTypeCustomerData)
	if err != nil {
		return Generators{}, err
	}
	support, err := build(contractx.AgentTypeSupport)
	if err != nil {
		return Generators{}, err
	}

	return Generators{Router: router, CustomerData: customerData, Support: support}, nil
}
