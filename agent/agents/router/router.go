package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/base"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	nodex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/nodes"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
	tracingx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/tracing"
)

const Name = string(contractx.AgentTypeRouter)

var ErrEmptyQuery = nodex.ErrEmptyQuery

// Router analyzes user queries, fans them out to the specialists and merges
// their answers.
type Router struct {
	*base.Agent

	prompts     promptx.PromptSet
	graphRunner compose.Runnable[nodex.GraphInput, contractx.QueryResult]
}

func New(ctx context.Context, deps base.Deps, prompts promptx.PromptSet) (*Router, error) {
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	r := &Router{prompts: prompts}
	graphRunner, err := r.compileHandleQueryGraph(ctx)
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	agent, err := base.New(base.Config{
		Name:         Name,
		Description:  "Orchestrates queries and routes to specialist agents",
		Capabilities: []string{"routing", "orchestration", "synthesis"},
	}, deps, r)
	if err != nil {
		return nil, err
	}
	r.Agent = agent
	return r, nil
}

// Process answers QUERY messages with a full pipeline run in the message's
// conversation and acknowledges everything else.
func (r *Router) Process(ctx context.Context, msg a2a.Message) (map[string]any, error) {
	if msg.Type() != a2a.TypeQuery {
		return map[string]any{
			"status":  "processed",
			"message": "Router received message",
		}, nil
	}

	query, _ := msg.PayloadValue("query").(string)
	result, err := r.HandleUserQuery(ctx, query, msg.ConversationID())
	if err != nil {
		return nil, err
	}
	return contractx.ToPayload(result)
}

// HandleUserQuery runs analyze, dispatch and synthesize for one query. An
// empty conversation id starts a new conversation.
func (r *Router) HandleUserQuery(ctx context.Context, query, conversationID string) (contractx.QueryResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "router.handle_query",
		attribute.String("a2a.conversation_id", conversationID),
	)
	defer span.End()

	result, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		Query:          query,
	})
	if err != nil {
		tracingx.RecordError(span, err)
		if errors.Is(err, nodex.ErrEmptyQuery) {
			return contractx.QueryResult{}, ErrEmptyQuery
		}
		return contractx.QueryResult{}, fmt.Errorf("handle query: %w", err)
	}

	span.SetAttributes(
		attribute.String("a2a.conversation_id", result.ConversationID),
		attribute.String("router.analysis_source", string(result.Analysis.Source)),
		attribute.StringSlice("router.agents_used", result.AgentsUsed),
	)
	tracingx.SetOK(span)
	return result, nil
}
