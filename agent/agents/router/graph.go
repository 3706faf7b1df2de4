package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	nodex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/nodes"
)

func (r *Router) compileHandleQueryGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, contractx.QueryResult], error) {
	graph := compose.NewGraph[nodex.GraphInput, contractx.QueryResult]()

	if err := graph.AddLambdaNode("validate_query",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateQuery(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_query: %w", err)
	}

	if err := graph.AddLambdaNode("analyze",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Analyze(ctx, in, r, r.prompts.Router)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node analyze: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_customer_data",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchCustomerData(ctx, in, r)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_customer_data: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_support",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchSupport(ctx, in, r)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_support: %w", err)
	}

	if err := graph.AddLambdaNode("synthesize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Synthesize(ctx, in, r, r.prompts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node synthesize: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (contractx.QueryResult, error) {
			return nodex.Finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_query"},
		{"validate_query", "analyze"},
		{"analyze", "dispatch_customer_data"},
		{"dispatch_customer_data", "dispatch_support"},
		{"dispatch_support", "synthesize"},
		{"synthesize", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.handle_query"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
