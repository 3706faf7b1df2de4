package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileInputSchema compiles the advertised input schema of t. A tool without
// properties or required fields gets no validator.
func compileInputSchema(t mcp.Tool) (*jsonschema.Schema, error) {
	var raw []byte
	switch {
	case len(t.RawInputSchema) > 0:
		raw = t.RawInputSchema
	case t.InputSchema.Properties != nil || t.InputSchema.Required != nil:
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %q: %w", t.Name, err)
		}
		raw = data
	default:
		return nil, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", t.Name, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", t.Name, err)
	}
	return compiled, nil
}

// validateArguments checks args against schema after a JSON round trip, so Go
// ints and structs are seen the way the server will see them.
func validateArguments(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return schema.Validate(v)
}
