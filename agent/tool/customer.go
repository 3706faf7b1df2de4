package tool

import (
	"context"
	"encoding/json"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

// Customers wraps the customer-service tools with typed arguments.
type Customers struct {
	caller contractx.ToolCaller
}

func NewCustomers(caller contractx.ToolCaller) Customers {
	return Customers{caller: caller}
}

// CustomerUpdate holds the fields to change; nil fields are left untouched.
type CustomerUpdate struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *string
}

func (u CustomerUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Status == nil
}

func (c Customers) GetCustomer(ctx context.Context, customerID int) (json.RawMessage, error) {
	return c.caller.CallTool(ctx, ToolGetCustomer, map[string]any{"customer_id": customerID})
}

// ListCustomers filters by status when it is not empty.
func (c Customers) ListCustomers(ctx context.Context, status string, limit int) (json.RawMessage, error) {
	args := map[string]any{"limit": limit}
	if status != "" {
		args["status"] = status
	}
	return c.caller.CallTool(ctx, ToolListCustomers, args)
}

func (c Customers) UpdateCustomer(ctx context.Context, customerID int, update CustomerUpdate) (json.RawMessage, error) {
	args := map[string]any{"customer_id": customerID}
	if update.Name != nil {
		args["name"] = *update.Name
	}
	if update.Email != nil {
		args["email"] = *update.Email
	}
	if update.Phone != nil {
		args["phone"] = *update.Phone
	}
	if update.Status != nil {
		args["status"] = *update.Status
	}
	return c.caller.CallTool(ctx, ToolUpdateCustomer, args)
}

func (c Customers) CreateTicket(ctx context.Context, customerID int, issue, priority string) (json.RawMessage, error) {
	if priority == "" {
		priority = "medium"
	}
	return c.caller.CallTool(ctx, ToolCreateTicket, map[string]any{
		"customer_id": customerID,
		"issue":       issue,
		"priority":    priority,
	})
}

func (c Customers) GetCustomerHistory(ctx context.Context, customerID int) (json.RawMessage, error) {
	return c.caller.CallTool(ctx, ToolGetCustomerHistory, map[string]any{"customer_id": customerID})
}

func (c Customers) SearchCustomers(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	return c.caller.CallTool(ctx, ToolSearchCustomers, map[string]any{"query": query, "limit": limit})
}

func (c Customers) GetOpenTickets(ctx context.Context, limit int) (json.RawMessage, error) {
	return c.caller.CallTool(ctx, ToolGetOpenTickets, map[string]any{"limit": limit})
}
