package routernode

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

const fallbackAnalysisText = "Fallback keyword-based analysis"

var (
	customerIDPattern = regexp.MustCompile(`(?:customer|id|#)\s*(\d+)`)

	customerKeywords = []string{"customer", "account", "email", "phone", "history", "info", "update", "profile"}
	supportKeywords  = []string{"ticket", "support", "issue", "problem", "help", "refund", "complaint", "urgent"}
)

// Analyze asks the model for a routing analysis and falls back to keyword
// rules when the call fails or its output cannot be parsed.
func Analyze(ctx context.Context, in *GraphState, router Router, systemPrompt string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	router.Logf("Analyzing query: '%s'", in.Query)

	raw, err := router.CallLLM(ctx, systemPrompt, in.Query)
	if err == nil {
		in.Analysis, err = ParseAnalysis(raw)
	}
	if err != nil {
		router.Logf("Error parsing LLM response, using fallback analysis: %v", err)
		in.Analysis = FallbackAnalysis(in.Query)
	}

	router.Logf("Analysis: %s", in.Analysis.Analysis)
	router.Logf("Requires customer data: %t", in.Analysis.RequiresCustomerData)
	router.Logf("Requires support: %t", in.Analysis.RequiresSupport)
	return in, nil
}

type rawAnalysis struct {
	Analysis             string                       `json:"analysis"`
	Intents              []string                     `json:"intents"`
	RequiresCustomerData bool                         `json:"requires_customer_data"`
	RequiresSupport      bool                         `json:"requires_support"`
	CustomerID           any                          `json:"customer_id"`
	RoutingPlan          []contractx.RoutingPlanEntry `json:"routing_plan"`
}

// ParseAnalysis decodes the model output, with or without a code fence.
func ParseAnalysis(raw string) (contractx.RoutingAnalysis, error) {
	body := strings.TrimSpace(StripCodeFence(raw))
	if body == "" {
		return contractx.RoutingAnalysis{}, fmt.Errorf("%w: empty routing analysis", contractx.ErrSchemaViolation)
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return contractx.RoutingAnalysis{}, fmt.Errorf("%w: decode routing analysis: %v", contractx.ErrSchemaViolation, err)
	}

	out := contractx.RoutingAnalysis{
		Analysis:             parsed.Analysis,
		Intents:              parsed.Intents,
		RequiresCustomerData: parsed.RequiresCustomerData,
		RequiresSupport:      parsed.RequiresSupport,
		RoutingPlan:          parsed.RoutingPlan,
		Source:               contractx.AnalysisParsed,
	}
	if id, ok := contractx.AsInt(parsed.CustomerID); ok {
		out.CustomerID = contractx.IntPtr(id)
	}
	if out.Intents == nil {
		out.Intents = []string{}
	}
	if out.RoutingPlan == nil {
		out.RoutingPlan = []contractx.RoutingPlanEntry{}
	}
	return out, nil
}

// StripCodeFence returns the body of the first ```json fence, or of the first
// plain ``` fence, or raw unchanged.
func StripCodeFence(raw string) string {
	for _, open := range []string{"```json", "```"} {
		_, after, found := strings.Cut(raw, open)
		if !found {
			continue
		}
		body, _, _ := strings.Cut(after, "```")
		return body
	}
	return raw
}

// FallbackAnalysis routes by keywords. A query matching nothing goes to the
// customer-data agent.
func FallbackAnalysis(query string) contractx.RoutingAnalysis {
	lower := strings.ToLower(query)

	var customerID *int
	if m := customerIDPattern.FindStringSubmatch(lower); m != nil {
		if id, ok := contractx.AsInt(m[1]); ok {
			customerID = contractx.IntPtr(id)
		}
	}

	requiresCustomer := containsAny(lower, customerKeywords) || customerID != nil
	requiresSupport := containsAny(lower, supportKeywords)
	if !requiresCustomer && !requiresSupport {
		requiresCustomer = true
	}

	return contractx.RoutingAnalysis{
		Analysis:             fallbackAnalysisText,
		Intents:              []string{"general_query"},
		RequiresCustomerData: requiresCustomer,
		RequiresSupport:      requiresSupport,
		CustomerID:           customerID,
		RoutingPlan:          []contractx.RoutingPlanEntry{},
		Source:               contractx.AnalysisFallback,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
