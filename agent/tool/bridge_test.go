package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type fakeMCPClient struct {
	tools     []mcp.Tool
	listErr   error
	listCalls atomic.Int32
	callFunc  func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	closed    bool
}

func (f *fakeMCPClient) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeMCPClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if f.callFunc != nil {
		return f.callFunc(ctx, req)
	}
	return mcp.NewToolResultText(fmt.Sprintf(`{"called":%q}`, req.Params.Name)), nil
}

func (f *fakeMCPClient) Close() error {
	f.closed = true
	return nil
}

func customerTool() mcp.Tool {
	return mcp.NewTool(ToolGetCustomer,
		mcp.WithDescription("Get customer information by ID."),
		mcp.WithNumber("customer_id", mcp.Required(), mcp.Description("The customer's unique identifier")),
	)
}

func newFakeBridge(t *testing.T, c *fakeMCPClient) *Bridge {
	t.Helper()
	b, err := newBridge(context.Background(), c, time.Second)
	if err != nil {
		t.Fatalf("newBridge: %v", err)
	}
	return b
}

func TestListToolsCachesCatalog(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{tools: []mcp.Tool{customerTool()}}
	b := newFakeBridge(t, c)

	for range 3 {
		tools, err := b.ListTools(context.Background(), true)
		if err != nil {
			t.Fatalf("ListTools: %v", err)
		}
		if len(tools) != 1 || tools[0].Name != ToolGetCustomer {
			t.Fatalf("unexpected catalog: %+v", tools)
		}
	}
	if got := c.listCalls.Load(); got != 1 {
		t.Fatalf("expected one catalog fetch, got %d", got)
	}

	if _, err := b.ListTools(context.Background(), false); err != nil {
		t.Fatalf("ListTools refresh: %v", err)
	}
	if got := c.listCalls.Load(); got != 2 {
		t.Fatalf("expected refresh to refetch, got %d fetches", got)
	}
}

func TestCallToolReturnsDecodedJSON(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{
		tools: []mcp.Tool{customerTool()},
		callFunc: func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id := req.GetInt("customer_id", 0)
			return mcp.NewToolResultText(fmt.Sprintf(`{"id":%d,"name":"John Doe"}`, id)), nil
		},
	}
	b := newFakeBridge(t, c)

	raw, err := b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 5})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	var got struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.ID != 5 || got.Name != "John Doe" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCallToolPlainTextBecomesJSONString(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{
		tools: []mcp.Tool{customerTool()},
		callFunc: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("done"), nil
		},
	}
	b := newFakeBridge(t, c)

	raw, err := b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 1})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if string(raw) != `"done"` {
		t.Fatalf("unexpected result: %s", raw)
	}
}

func TestCallToolUnknownToolIsProtocolError(t *testing.T) {
	t.Parallel()

	b := newFakeBridge(t, &fakeMCPClient{tools: []mcp.Tool{customerTool()}})

	_, err := b.CallTool(context.Background(), "drop_tables", nil)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if pe.Code != CodeMethodNotFound {
		t.Fatalf("unexpected code: %d", pe.Code)
	}
	if IsToolError(err) {
		t.Fatal("protocol error must not be a tool error")
	}
}

func TestCallToolInvalidArgumentsIsProtocolError(t *testing.T) {
	t.Parallel()

	called := false
	c := &fakeMCPClient{
		tools: []mcp.Tool{customerTool()},
		callFunc: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("{}"), nil
		},
	}
	b := newFakeBridge(t, c)

	for name, args := range map[string]map[string]any{
		"missing": {},
		"wrong":   {"customer_id": "five"},
	} {
		_, err := b.CallTool(context.Background(), ToolGetCustomer, args)
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected protocol error, got %v", name, err)
		}
		if pe.Code != CodeInvalidParams {
			t.Fatalf("%s: unexpected code: %d", name, pe.Code)
		}
		if pe.Data == nil {
			t.Fatalf("%s: expected validation detail", name)
		}
	}
	if called {
		t.Fatal("invalid arguments must not reach the server")
	}
}

func TestCallToolIsErrorIsToolError(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{
		tools: []mcp.Tool{customerTool()},
		callFunc: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("Customer with ID 999 not found"), nil
		},
	}
	b := newFakeBridge(t, c)

	_, err := b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 999})
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected tool error, got %v", err)
	}
	if te.Tool != ToolGetCustomer || te.Message != "Customer with ID 999 not found" {
		t.Fatalf("unexpected tool error: %+v", te)
	}
	if IsProtocolError(err) {
		t.Fatal("tool error must not be a protocol error")
	}
}

func TestCallToolTransportFailureIsProtocolError(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{
		tools: []mcp.Tool{customerTool()},
		callFunc: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, fmt.Errorf("%w: bad id", mcp.ErrInvalidParams)
		},
	}
	b := newFakeBridge(t, c)

	_, err := b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 1})
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != CodeInvalidParams {
		t.Fatalf("expected invalid params protocol error, got %v", err)
	}

	c.callFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("connection refused")
	}
	_, err = b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 1})
	if !errors.As(err, &pe) || pe.Code != CodeInternalError {
		t.Fatalf("expected internal protocol error, got %v", err)
	}
}

func TestCallToolCatalogFailureIsProtocolError(t *testing.T) {
	t.Parallel()

	b := newFakeBridge(t, &fakeMCPClient{listErr: errors.New("server down")})

	_, err := b.CallTool(context.Background(), ToolGetCustomer, map[string]any{"customer_id": 1})
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != CodeInternalError {
		t.Fatalf("expected internal protocol error, got %v", err)
	}
	if !strings.Contains(pe.Message, "server down") {
		t.Fatalf("unexpected message: %q", pe.Message)
	}
}

func TestCloseClosesClient(t *testing.T) {
	t.Parallel()

	c := &fakeMCPClient{}
	b := newFakeBridge(t, c)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.closed {
		t.Fatal("client was not closed")
	}
}

func TestInProcessBridge(t *testing.T) {
	t.Parallel()

	srv := server.NewMCPServer("test-server", "1.0.0", server.WithToolCapabilities(true))
	srv.AddTool(customerTool(), func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("customer_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if id != 1 {
			return mcp.NewToolResultError(fmt.Sprintf("Customer with ID %d not found", id)), nil
		}
		return mcp.NewToolResultText(`{"id":1,"name":"John Doe"}`), nil
	})

	ctx := context.Background()
	b, err := NewInProcess(ctx, srv, time.Second)
	if err != nil {
		t.Fatalf("NewInProcess: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	customers := NewCustomers(b)
	raw, err := customers.GetCustomer(ctx, 1)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !strings.Contains(string(raw), "John Doe") {
		t.Fatalf("unexpected result: %s", raw)
	}

	_, err = customers.GetCustomer(ctx, 2)
	if !IsToolError(err) {
		t.Fatalf("expected tool error, got %v", err)
	}

	_, err = b.CallTool(ctx, ToolCreateTicket, map[string]any{"customer_id": 1})
	if !IsProtocolError(err) {
		t.Fatalf("expected protocol error for unadvertised tool, got %v", err)
	}
}
