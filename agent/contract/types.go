package contract

import (
	"encoding/json"
	"strconv"
	"strings"
)

type AgentType string

const (
	AgentTypeRouter       AgentType = "router"
	AgentTypeCustomerData AgentType = "customer_data"
	AgentTypeSupport      AgentType = "support"
)

// AnalysisSource tells whether a routing analysis came from the model or the keyword fallback.
type AnalysisSource string

const (
	AnalysisParsed   AnalysisSource = "parsed"
	AnalysisFallback AnalysisSource = "fallback"
)

type RoutingPlanEntry struct {
	Agent    string       `json:"agent"`
	Task     string       `json:"task"`
	Priority PlanPriority `json:"priority"`
}

// Targets reports whether the entry is addressed to agent. Both "support" and
// "support_agent" spellings match.
func (e RoutingPlanEntry) Targets(agent AgentType) bool {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(e.Agent)), "_agent")
	return name == string(agent)
}

// PlanPriority accepts numbers or numeric strings; anything else decodes as 0.
type PlanPriority int

func (p *PlanPriority) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, _ := AsInt(v)
	*p = PlanPriority(n)
	return nil
}

type RoutingAnalysis struct {
	Analysis             string             `json:"analysis"`
	Intents              []string           `json:"intents"`
	RequiresCustomerData bool               `json:"requires_customer_data"`
	RequiresSupport      bool               `json:"requires_support"`
	CustomerID           *int               `json:"customer_id"`
	RoutingPlan          []RoutingPlanEntry `json:"routing_plan"`
	Source               AnalysisSource     `json:"source"`
}

func (a RoutingAnalysis) TasksFor(agent AgentType) []RoutingPlanEntry {
	out := []RoutingPlanEntry{}
	for _, entry := range a.RoutingPlan {
		if entry.Targets(agent) {
			out = append(out, entry)
		}
	}
	return out
}

// SpecialistRequest is the payload the router sends to a specialist.
type SpecialistRequest struct {
	Query        string             `json:"query"`
	CustomerID   *int               `json:"customer_id"`
	CustomerData map[string]any     `json:"customer_data,omitempty"`
	Tasks        []RoutingPlanEntry `json:"tasks"`
}

type SupportAnalysis struct {
	NeedsTicket      bool   `json:"needs_ticket"`
	Priority         string `json:"priority"`
	Category         string `json:"category"`
	EscalationNeeded bool   `json:"escalation_needed"`
	EscalationReason string `json:"escalation_reason,omitempty"`
	IssueSummary     string `json:"issue_summary"`
}

// AgentResponse is the payload a specialist answers with.
type AgentResponse struct {
	Response string           `json:"response"`
	Data     map[string]any   `json:"data"`
	Errors   []string         `json:"errors"`
	Analysis *SupportAnalysis `json:"analysis,omitempty"`
}

type QueryResult struct {
	ConversationID string                    `json:"conversation_id"`
	Response       string                    `json:"response"`
	Analysis       RoutingAnalysis           `json:"analysis"`
	AgentResponses map[string]map[string]any `json:"agent_responses"`
	AgentsUsed     []string                  `json:"agents_used"`
	AgentLogs      []string                  `json:"agent_logs,omitempty"`
}

// AsInt converts JSON-ish numbers (int, float64, json.Number, numeric string) to int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case float32:
		return AsInt(float64(n))
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case *int:
		if n == nil {
			return 0, false
		}
		return *n, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func IntPtr(v int) *int {
	return &v
}
