package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"

	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
	tracingx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/tracing"
)

const (
	defaultCallTimeout = 30 * time.Second
	clientName         = "chative-a2a"
	clientVersion      = "1.0.0"
)

// mcpClient is the subset of the mcp-go client used by the bridge.
type mcpClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type initializer interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
}

// Bridge calls tools on an MCP server. The tool catalog is fetched on first
// use and cached until ListTools is asked to refresh it.
type Bridge struct {
	client      mcpClient
	callTimeout time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	catalog []mcp.Tool
	byName  map[string]mcp.Tool
	schemas map[string]*jsonschema.Schema
}

// Connect dials the tool server with the configured transport and runs the
// MCP initialize handshake.
func Connect(ctx context.Context, cfg Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var c mcpClient
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case TransportStdio:
		stdio, err := mcpclient.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("create stdio client: %w", err)
		}
		c = stdio
	case TransportInProcess:
		return nil, fmt.Errorf("transport=%s has no remote endpoint, use NewInProcess", TransportInProcess)
	default:
		t, err := transport.NewStreamableHTTP(cfg.endpoint())
		if err != nil {
			return nil, fmt.Errorf("create http transport: %w", err)
		}
		httpClient := mcpclient.NewClient(t)
		if err := httpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("start http client: %w", err)
		}
		c = httpClient
	}

	b, err := newBridge(ctx, c, cfg.CallTimeout)
	if err != nil {
		return nil, err
	}
	b.logger.Info().Str("transport", cfg.Transport).Str("url", cfg.endpoint()).Msg("mcp server connected")
	return b, nil
}

// NewInProcess connects to srv without any network transport.
func NewInProcess(ctx context.Context, srv *server.MCPServer, callTimeout time.Duration) (*Bridge, error) {
	c, err := mcpclient.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start in-process client: %w", err)
	}
	return newBridge(ctx, c, callTimeout)
}

func newBridge(ctx context.Context, c mcpClient, callTimeout time.Duration) (*Bridge, error) {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	b := &Bridge{
		client:      c,
		callTimeout: callTimeout,
		logger:      logx.Component("tool.bridge"),
	}

	if ic, ok := c.(initializer); ok {
		req := mcp.InitializeRequest{}
		req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
		if _, err := ic.Initialize(ctx, req); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("initialize mcp session: %w", err)
		}
	}
	return b, nil
}

func (b *Bridge) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

// ListTools returns the tool catalog. With useCache the first fetched catalog
// is reused; otherwise the server is asked again and the cache replaced.
func (b *Bridge) ListTools(ctx context.Context, useCache bool) ([]mcp.Tool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if useCache && b.catalog != nil {
		return append([]mcp.Tool(nil), b.catalog...), nil
	}

	result, err := b.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, classifyCallError(fmt.Errorf("list tools: %w", err))
	}

	byName := make(map[string]mcp.Tool, len(result.Tools))
	schemas := make(map[string]*jsonschema.Schema, len(result.Tools))
	for _, t := range result.Tools {
		byName[t.Name] = t
		schema, err := compileInputSchema(t)
		if err != nil {
			b.logger.Warn().Err(err).Str("tool", t.Name).Msg("input schema skipped")
			continue
		}
		schemas[t.Name] = schema
	}

	b.catalog = append([]mcp.Tool{}, result.Tools...)
	b.byName = byName
	b.schemas = schemas
	b.logger.Debug().Int("count", len(result.Tools)).Msg("tool catalog refreshed")
	return append([]mcp.Tool(nil), b.catalog...), nil
}

func (b *Bridge) lookup(ctx context.Context, name string) (mcp.Tool, *jsonschema.Schema, bool, error) {
	if _, err := b.ListTools(ctx, true); err != nil {
		return mcp.Tool{}, nil, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.byName[name]
	return t, b.schemas[name], ok, nil
}

// CallTool invokes name with args and returns the tool's JSON result.
//
// Failures are typed: *ProtocolError when the call could not be made as asked
// and *ToolError when the tool ran and reported failure.
func (b *Bridge) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.call", attribute.String("tool.name", name))
	defer span.End()

	out, err := b.callTool(ctx, name, args)
	if err != nil {
		tier := "protocol"
		if IsToolError(err) {
			tier = "tool"
		}
		span.SetAttributes(attribute.String("tool.error_tier", tier))
		tracingx.RecordError(span, err)
		return nil, err
	}
	tracingx.SetOK(span)
	return out, nil
}

func (b *Bridge) callTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	_, schema, known, err := b.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, &ProtocolError{Code: CodeMethodNotFound, Message: fmt.Sprintf("Unknown tool: %s", name)}
	}
	if err := validateArguments(schema, args); err != nil {
		return nil, &ProtocolError{
			Code:    CodeInvalidParams,
			Message: fmt.Sprintf("Invalid arguments for tool %s", name),
			Data:    err.Error(),
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	started := time.Now()
	result, err := b.client.CallTool(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("tool %s timed out after %s: %w", name, b.callTimeout, err)
		}
		b.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return nil, classifyCallError(err)
	}

	b.logger.Debug().
		Str("tool", name).
		Bool("is_error", result.IsError).
		Dur("elapsed", time.Since(started)).
		Msg("tool call finished")

	if result.IsError {
		msg := firstText(result)
		if msg == "" {
			msg = "Tool execution failed"
		}
		return nil, &ToolError{Tool: name, Message: msg}
	}
	return decodeResult(result)
}

// decodeResult returns the first text content as JSON. Text that is not JSON
// is returned as a JSON string.
func decodeResult(result *mcp.CallToolResult) (json.RawMessage, error) {
	if text, ok := firstTextContent(result); ok {
		trimmed := strings.TrimSpace(text)
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed), nil
		}
		data, err := json.Marshal(text)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("encode structured content: %w", err)
		}
		return data, nil
	}
	return json.RawMessage("null"), nil
}

func firstText(result *mcp.CallToolResult) string {
	text, _ := firstTextContent(result)
	return text
}

func firstTextContent(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			return v.Text, true
		case *mcp.TextContent:
			return v.Text, true
		}
	}
	return "", false
}
