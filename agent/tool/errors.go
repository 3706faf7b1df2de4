package tool

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSON-RPC codes reported on the protocol tier.
const (
	CodeMethodNotFound = mcp.METHOD_NOT_FOUND
	CodeInvalidParams  = mcp.INVALID_PARAMS
	CodeInternalError  = mcp.INTERNAL_ERROR
)

// ProtocolError is a failure of the call itself: unknown tool, arguments that
// do not match the input schema, or a broken transport.
type ProtocolError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProtocolError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("MCP Error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("MCP Error %d: %s", e.Code, e.Message)
}

// ToolError means the tool ran and reported failure through isError.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("Tool '%s' failed: %s", e.Tool, e.Message)
}

func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}

// classifyCallError maps a client error onto the protocol tier.
func classifyCallError(err error) *ProtocolError {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe
	}
	switch {
	case errors.Is(err, mcp.ErrMethodNotFound):
		return &ProtocolError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, mcp.ErrInvalidParams):
		return &ProtocolError{Code: CodeInvalidParams, Message: err.Error()}
	default:
		return &ProtocolError{Code: CodeInternalError, Message: err.Error()}
	}
}
