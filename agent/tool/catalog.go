package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

const (
	ToolGetCustomer        = "get_customer"
	ToolListCustomers      = "list_customers"
	ToolUpdateCustomer     = "update_customer"
	ToolCreateTicket       = "create_ticket"
	ToolGetCustomerHistory = "get_customer_history"
	ToolSearchCustomers    = "search_customers"
	ToolGetOpenTickets     = "get_open_tickets"
)

// ToolsForAgent lists the tools an agent type may call.
func ToolsForAgent(agentType contractx.AgentType) []string {
	switch agentType {
	case contractx.AgentTypeCustomerData:
		return []string{
			ToolGetCustomer,
			ToolListCustomers,
			ToolUpdateCustomer,
			ToolGetCustomerHistory,
			ToolSearchCustomers,
			ToolGetOpenTickets,
		}
	case contractx.AgentTypeSupport:
		return []string{
			ToolCreateTicket,
			ToolGetCustomerHistory,
			ToolGetOpenTickets,
		}
	default:
		return nil
	}
}

type scopedCaller struct {
	agentType contractx.AgentType
	allowed   []string
	next      contractx.ToolCaller
}

// ForAgent restricts caller to the tools of agentType. Other names fail on the
// protocol tier without reaching the server.
func ForAgent(agentType contractx.AgentType, caller contractx.ToolCaller) contractx.ToolCaller {
	return &scopedCaller{agentType: agentType, allowed: ToolsForAgent(agentType), next: caller}
}

func (s *scopedCaller) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if !slices.Contains(s.allowed, name) {
		return nil, &ProtocolError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("tool=%s is unavailable for agent=%s", name, s.agentType),
		}
	}
	return s.next.CallTool(ctx, name, args)
}
