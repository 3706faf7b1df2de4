package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/customerdb"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

const (
	ServerName    = "CustomerServiceMCP"
	ServerVersion = "1.0.0"

	instructions = `Customer Service MCP Server providing tools for:
- Customer information lookup and management
- Support ticket creation and tracking
- Customer history and interaction logs`
)

// Repository is the storage used by the tool handlers.
type Repository interface {
	GetCustomer(ctx context.Context, id int64) (customerdb.Customer, error)
	ListCustomers(ctx context.Context, status string, limit int) ([]customerdb.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, update customerdb.CustomerUpdate) (customerdb.Customer, error)
	CreateTicket(ctx context.Context, customerID int64, issue, priority string) (customerdb.Ticket, error)
	CustomerHistory(ctx context.Context, customerID int64) (customerdb.History, error)
	SearchCustomers(ctx context.Context, query string, limit int) ([]customerdb.Customer, error)
	OpenTickets(ctx context.Context, limit int) ([]customerdb.OpenTicket, error)
}

type handlers struct {
	repo   Repository
	logger zerolog.Logger
}

// New builds the MCP server exposing the customer-service tools over repo.
func New(repo Repository) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	h := &handlers{repo: repo, logger: logx.Component("mcpserver")}

	s.AddTool(mcp.NewTool("get_customer",
		mcp.WithDescription("Get customer information by ID."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("The customer's unique identifier")),
	), h.getCustomer)

	s.AddTool(mcp.NewTool("list_customers",
		mcp.WithDescription("List customers with optional status filter."),
		mcp.WithString("status", mcp.Description("Filter by 'active' or 'disabled'"), mcp.Enum(customerdb.StatusActive, customerdb.StatusDisabled)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 10)")),
	), h.listCustomers)

	s.AddTool(mcp.NewTool("update_customer",
		mcp.WithDescription("Update customer information."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("The customer's unique identifier")),
		mcp.WithString("name", mcp.Description("New name for the customer")),
		mcp.WithString("email", mcp.Description("New email for the customer")),
		mcp.WithString("phone", mcp.Description("New phone for the customer")),
		mcp.WithString("status", mcp.Description("New status"), mcp.Enum(customerdb.StatusActive, customerdb.StatusDisabled)),
	), h.updateCustomer)

	s.AddTool(mcp.NewTool("create_ticket",
		mcp.WithDescription("Create a new support ticket for a customer."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("The customer's unique identifier")),
		mcp.WithString("issue", mcp.Required(), mcp.Description("Description of the issue")),
		mcp.WithString("priority", mcp.Description("Priority level (default: medium)"),
			mcp.Enum(customerdb.PriorityLow, customerdb.PriorityMedium, customerdb.PriorityHigh)),
	), h.createTicket)

	s.AddTool(mcp.NewTool("get_customer_history",
		mcp.WithDescription("Get customer information and all their support tickets."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("The customer's unique identifier")),
	), h.customerHistory)

	s.AddTool(mcp.NewTool("search_customers",
		mcp.WithDescription("Search customers by name or email."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term to match against name or email")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 10)")),
	), h.searchCustomers)

	s.AddTool(mcp.NewTool("get_open_tickets",
		mcp.WithDescription("Get all open support tickets."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 20)")),
	), h.openTickets)

	return s
}

func (h *handlers) getCustomer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := h.repo.GetCustomer(ctx, int64(id))
	if err != nil {
		return h.fail("get_customer", err), nil
	}
	return jsonResult(map[string]any{"success": true, "data": c})
}

func (h *handlers) listCustomers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customers, err := h.repo.ListCustomers(ctx, req.GetString("status", ""), req.GetInt("limit", 10))
	if err != nil {
		return h.fail("list_customers", err), nil
	}
	return jsonResult(map[string]any{"success": true, "data": customers, "count": len(customers)})
}

func (h *handlers) updateCustomer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	update := customerdb.CustomerUpdate{
		Name:   optionalString(args, "name"),
		Email:  optionalString(args, "email"),
		Phone:  optionalString(args, "phone"),
		Status: optionalString(args, "status"),
	}
	c, err := h.repo.UpdateCustomer(ctx, int64(id), update)
	if err != nil {
		return h.fail("update_customer", err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "Customer updated successfully", "data": c})
}

func (h *handlers) createTicket(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issue, err := req.RequireString("issue")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := h.repo.CreateTicket(ctx, int64(id), issue, req.GetString("priority", customerdb.PriorityMedium))
	if err != nil {
		return h.fail("create_ticket", err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "Ticket created successfully", "data": t})
}

func (h *handlers) customerHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	history, err := h.repo.CustomerHistory(ctx, int64(id))
	if err != nil {
		return h.fail("get_customer_history", err), nil
	}
	return jsonResult(map[string]any{
		"success":      true,
		"customer":     history.Customer,
		"tickets":      history.Tickets,
		"ticket_count": len(history.Tickets),
	})
}

func (h *handlers) searchCustomers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	customers, err := h.repo.SearchCustomers(ctx, query, req.GetInt("limit", 10))
	if err != nil {
		return h.fail("search_customers", err), nil
	}
	return jsonResult(map[string]any{"success": true, "data": customers, "count": len(customers), "query": query})
}

func (h *handlers) openTickets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tickets, err := h.repo.OpenTickets(ctx, req.GetInt("limit", 20))
	if err != nil {
		return h.fail("get_open_tickets", err), nil
	}
	return jsonResult(map[string]any{"success": true, "data": tickets, "count": len(tickets)})
}

// fail reports a failed tool run through isError so clients see it on the
// tool tier rather than as a JSON-RPC error.
func (h *handlers) fail(tool string, err error) *mcp.CallToolResult {
	h.logger.Warn().Err(err).Str("tool", tool).Msg("tool failed")
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func optionalString(args map[string]any, key string) *string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}
