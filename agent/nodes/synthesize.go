package routernode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
)

const (
	NoResponseApology = "I apologize, but I couldn't process your request. Please try again."
	ProcessedMessage  = "Request processed. Please check the details above."
)

// Synthesize merges the specialist answers into one reply. Without any answer
// it apologizes; when the model fails it reuses the first specialist summary.
func Synthesize(ctx context.Context, in *GraphState, router Router, prompts promptx.PromptSet) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	router.Logf("Synthesizing final response")

	if len(in.AgentsUsed) == 0 {
		in.Response = NoResponseApology
		return in, nil
	}

	user := prompts.RenderSynthesis(in.Query, FormatAgentResponses(in.AgentsUsed, in.AgentResponses))
	reply, err := router.CallLLM(ctx, prompts.SynthesisSystem, user)
	if err == nil && strings.TrimSpace(reply) != "" {
		in.Response = reply
		return in, nil
	}
	if err == nil {
		err = fmt.Errorf("%w: empty synthesis", contractx.ErrNoResponse)
	}

	router.Logf("Error synthesizing response: %v", err)
	in.Response = firstSummary(in.AgentsUsed, in.AgentResponses)
	return in, nil
}

// FormatAgentResponses renders each payload under an "<NAME> AGENT:" label,
// using its response text when present and the indented JSON otherwise.
func FormatAgentResponses(order []string, responses map[string]map[string]any) string {
	var b strings.Builder
	for _, name := range order {
		payload := responses[name]
		b.WriteString("\n" + strings.ToUpper(name) + " AGENT:\n")
		if text, ok := payload["response"]; ok {
			b.WriteString(fmt.Sprint(text) + "\n")
			continue
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprint(payload))
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String()
}

func firstSummary(order []string, responses map[string]map[string]any) string {
	for _, name := range order {
		if text, ok := responses[name]["response"].(string); ok {
			return text
		}
	}
	return ProcessedMessage
}

// Finalize turns the pipeline state into the query result.
func Finalize(in *GraphState) (contractx.QueryResult, error) {
	if in == nil {
		return contractx.QueryResult{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return contractx.QueryResult{
		ConversationID: in.ConversationID,
		Response:       in.Response,
		Analysis:       in.Analysis,
		AgentResponses: in.AgentResponses,
		AgentsUsed:     in.AgentsUsed,
	}, nil
}
