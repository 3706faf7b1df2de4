package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/base"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

const (
	CustomerDataName = string(contractx.AgentTypeCustomerData)

	listLimit        = 10
	searchLimit      = 10
	openTicketsLimit = 20

	noCustomerData = "I couldn't find any relevant customer data for your query. Please provide more details or a customer ID."
)

// CustomerData answers lookups, listings, searches and profile updates from
// the customer tools.
type CustomerData struct {
	*base.Agent

	tools        tool.Customers
	systemPrompt string
}

func NewCustomerData(deps base.Deps, caller contractx.ToolCaller, systemPrompt string) (*CustomerData, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: tool caller is required", contractx.ErrValidation)
	}
	c := &CustomerData{
		tools:        tool.NewCustomers(tool.ForAgent(contractx.AgentTypeCustomerData, caller)),
		systemPrompt: systemPrompt,
	}
	agent, err := base.New(base.Config{
		Name:         CustomerDataName,
		Description:  "Handles customer information lookup and management",
		Capabilities: []string{"customer_lookup", "customer_update", "customer_history"},
	}, deps, c)
	if err != nil {
		return nil, err
	}
	c.Agent = agent
	return c, nil
}

func (c *CustomerData) Process(ctx context.Context, msg a2a.Message) (map[string]any, error) {
	var req contractx.SpecialistRequest
	if err := contractx.FromPayload(msg.Payload(), &req); err != nil {
		return nil, err
	}
	c.Logf("Processing query: '%s'", req.Query)

	data := map[string]any{}
	var errs []string
	lower := strings.ToLower(req.Query)
	customerID, hasCustomer := knownCustomer(req.CustomerID)

	if hasCustomer {
		c.Logf("Looking up customer ID: %d", customerID)
		raw, err := c.tools.GetCustomer(ctx, customerID)
		if err != nil {
			c.Logf("Error fetching customer: %v", err)
			errs = append(errs, describeToolError(err))
		} else {
			data["customer"] = field(raw, "data")
			c.Logf("Found customer: %s", nameOr(gjson.GetBytes(raw, "data.name"), "Unknown"))
		}
	}

	if strings.Contains(lower, "history") || strings.Contains(lower, "tickets") {
		if hasCustomer {
			c.Logf("Fetching history for customer %d", customerID)
			raw, err := c.tools.GetCustomerHistory(ctx, customerID)
			if err != nil {
				c.Logf("Error fetching history: %v", err)
				errs = append(errs, describeToolError(err))
			} else {
				data["history"] = field(raw, "@this")
			}
		}
	}

	if strings.Contains(lower, "list") || strings.Contains(lower, "all customers") {
		c.Logf("Listing customers")
		status := ""
		if strings.Contains(lower, "active") {
			status = "active"
		}
		raw, err := c.tools.ListCustomers(ctx, status, listLimit)
		if err != nil {
			c.Logf("Error listing customers: %v", err)
			errs = append(errs, describeToolError(err))
		} else {
			data["customers_list"] = field(raw, "data")
		}
	}

	if strings.Contains(lower, "search") || strings.Contains(lower, "find") {
		if term, ok := ExtractSearchTerm(req.Query); ok {
			c.Logf("Searching for: %s", term)
			raw, err := c.tools.SearchCustomers(ctx, term, searchLimit)
			if err != nil {
				c.Logf("Error searching: %v", err)
				errs = append(errs, describeToolError(err))
			} else {
				data["search_results"] = field(raw, "data")
			}
		}
	}

	if strings.Contains(lower, "open tickets") {
		c.Logf("Fetching open tickets")
		raw, err := c.tools.GetOpenTickets(ctx, openTicketsLimit)
		if err != nil {
			c.Logf("Error fetching open tickets: %v", err)
			errs = append(errs, describeToolError(err))
		} else {
			data["open_tickets"] = field(raw, "data")
		}
	}

	if strings.Contains(lower, "update") && hasCustomer {
		if result, ok := c.update(ctx, req.Query, customerID); ok {
			data["update_result"] = result
		}
	}

	return contractx.ToPayload(contractx.AgentResponse{
		Response: c.respond(ctx, req.Query, data, errs),
		Data:     data,
		Errors:   errs,
	})
}

func (c *CustomerData) update(ctx context.Context, query string, customerID int) (any, bool) {
	update := ExtractUpdate(query)
	if update.Empty() {
		return nil, false
	}
	c.Logf("Updating customer %d: %s", customerID, describeUpdate(update))

	raw, err := c.tools.UpdateCustomer(ctx, customerID, update)
	if err != nil {
		c.Logf("Error updating customer: %v", err)
		return map[string]any{"success": false, "error": describeToolError(err)}, true
	}
	return field(raw, "@this"), true
}

func (c *CustomerData) respond(ctx context.Context, query string, data map[string]any, errs []string) string {
	if len(data) == 0 {
		if len(errs) > 0 {
			return "I encountered some issues while processing your request: " + strings.Join(errs, "; ")
		}
		return noCustomerData
	}

	var b strings.Builder
	b.WriteString("Query: " + query + "\n\nAvailable Data:\n")
	b.WriteString(indentJSON(data))
	if len(errs) > 0 {
		b.WriteString("\n\nNotes: " + strings.Join(errs, "; "))
	}

	reply, err := c.CallLLM(ctx, c.systemPrompt, "Based on this customer data, provide a helpful response:\n\n"+b.String())
	if err == nil && strings.TrimSpace(reply) == "" {
		err = contractx.ErrNoResponse
	}
	if err != nil {
		c.Logf("Error generating response: %v", err)
		return "Customer Data Retrieved:\n" + indentJSON(data)
	}
	return reply
}

func knownCustomer(id *int) (int, bool) {
	if id == nil || *id <= 0 {
		return 0, false
	}
	return *id, true
}

func nameOr(res gjson.Result, fallback string) string {
	if res.String() == "" {
		return fallback
	}
	return res.String()
}

func describeUpdate(u tool.CustomerUpdate) string {
	var parts []string
	if u.Name != nil {
		parts = append(parts, "name="+*u.Name)
	}
	if u.Email != nil {
		parts = append(parts, "email="+*u.Email)
	}
	if u.Phone != nil {
		parts = append(parts, "phone="+*u.Phone)
	}
	if u.Status != nil {
		parts = append(parts, "status="+*u.Status)
	}
	return strings.Join(parts, ", ")
}
