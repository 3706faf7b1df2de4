package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/customerdb"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	ctx := context.Background()

	store, err := customerdb.Open(ctx, customerdb.Config{
		DSN:  filepath.Join(t.TempDir(), "customers.db"),
		Seed: true,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	c, err := client.NewInProcessClient(New(store))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start client: %v", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	result, err := c.Initialize(ctx, initReq)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.ServerInfo.Name != ServerName {
		t.Fatalf("unexpected server name: %s", result.ServerInfo.Name)
	}
	return c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	if result.IsError {
		return result, map[string]any{"error": text.Text}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return result, out
}

func TestListToolsAdvertisesCatalog(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"get_customer": true, "list_customers": true, "update_customer": true, "create_ticket": true,
		"get_customer_history": true, "search_customers": true, "get_open_tickets": true,
	}
	if len(result.Tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(result.Tools))
	}
	for _, tool := range result.Tools {
		if !want[tool.Name] {
			t.Fatalf("unexpected tool %q", tool.Name)
		}
	}
}

func TestGetCustomer(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	_, out := call(t, c, "get_customer", map[string]any{"customer_id": 5})
	data, _ := out["data"].(map[string]any)
	if out["success"] != true || data["name"] != "Test User 5" {
		t.Fatalf("unexpected result: %v", out)
	}

	result, out := call(t, c, "get_customer", map[string]any{"customer_id": 999})
	if !result.IsError || out["error"] != "Customer with ID 999 not found" {
		t.Fatalf("expected tool-tier not found, got %v", out)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	result, out := call(t, c, "create_ticket", map[string]any{"customer_id": 1, "issue": "x", "priority": "urgent"})
	if !result.IsError || out["error"] != "Priority must be 'low', 'medium', or 'high'" {
		t.Fatalf("expected priority error, got %v", out)
	}

	_, out = call(t, c, "create_ticket", map[string]any{"customer_id": 1, "issue": "Refund request"})
	data, _ := out["data"].(map[string]any)
	if data["priority"] != "medium" || data["status"] != "open" {
		t.Fatalf("unexpected ticket: %v", out)
	}
}

func TestCustomerHistoryAndOpenTickets(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	_, out := call(t, c, "get_customer_history", map[string]any{"customer_id": 1})
	if out["ticket_count"] != float64(2) {
		t.Fatalf("unexpected history: %v", out)
	}

	_, out = call(t, c, "get_open_tickets", map[string]any{"limit": 3})
	rows, _ := out["data"].([]any)
	if len(rows) != 3 {
		t.Fatalf("expected 3 open tickets, got %v", out)
	}
	first, _ := rows[0].(map[string]any)
	if first["priority"] != "high" || first["customer_name"] == "" {
		t.Fatalf("unexpected first open ticket: %v", first)
	}
}

func TestUpdateCustomerRequiresFields(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	result, _ := call(t, c, "update_customer", map[string]any{"customer_id": 1})
	if !result.IsError {
		t.Fatal("update without fields must fail on the tool tier")
	}

	_, out := call(t, c, "update_customer", map[string]any{"customer_id": 1, "phone": "+1-555-9999"})
	data, _ := out["data"].(map[string]any)
	if data["phone"] != "+1-555-9999" {
		t.Fatalf("unexpected update: %v", out)
	}
}
