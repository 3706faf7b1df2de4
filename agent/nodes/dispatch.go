package routernode

import (
	"context"
	"fmt"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

// DispatchCustomerData queries the customer-data agent when the analysis asks for it.
func DispatchCustomerData(ctx context.Context, in *GraphState, router Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Analysis.RequiresCustomerData {
		return in, nil
	}

	router.Logf("Routing to customer_data_agent via A2A")
	req := contractx.SpecialistRequest{
		Query:      in.Query,
		CustomerID: in.Analysis.CustomerID,
		Tasks:      in.Analysis.TasksFor(contractx.AgentTypeCustomerData),
	}
	return dispatch(ctx, in, router, contractx.AgentTypeCustomerData, req)
}

// DispatchSupport queries the support agent, passing along whatever the
// customer-data agent returned.
func DispatchSupport(ctx context.Context, in *GraphState, router Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Analysis.RequiresSupport {
		return in, nil
	}

	router.Logf("Routing to support_agent via A2A")
	req := contractx.SpecialistRequest{
		Query:        in.Query,
		CustomerID:   in.Analysis.CustomerID,
		CustomerData: in.AgentResponses[string(contractx.AgentTypeCustomerData)],
		Tasks:        in.Analysis.TasksFor(contractx.AgentTypeSupport),
	}
	return dispatch(ctx, in, router, contractx.AgentTypeSupport, req)
}

func dispatch(
	ctx context.Context,
	in *GraphState,
	router Router,
	agent contractx.AgentType,
	req contractx.SpecialistRequest,
) (*GraphState, error) {
	payload, err := contractx.ToPayload(req)
	if err != nil {
		return nil, err
	}

	resp := router.SendToAgent(ctx, string(agent), a2a.TypeQuery, payload, in.ConversationID)
	switch {
	case resp == nil:
		router.Logf("No response from %s", agent)
	case resp.IsError():
		router.Logf("Error from %s: %s", agent, resp.ErrorText())
	default:
		in.AgentResponses[string(agent)] = resp.Payload()
		in.AgentsUsed = append(in.AgentsUsed, string(agent))
	}
	return in, nil
}
