package specialist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

// describeToolError renders a bridge failure for the agent's error list.
// Tool-tier failures carry a user-facing message; protocol-tier failures keep
// their code so they stay distinguishable in the agent log.
func describeToolError(err error) string {
	var toolErr *tool.ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	var protoErr *tool.ProtocolError
	if errors.As(err, &protoErr) {
		return fmt.Sprintf("tool call rejected (%d): %s", protoErr.Code, protoErr.Message)
	}
	return err.Error()
}

// field returns the decoded value at path, or nil when it is absent.
func field(raw json.RawMessage, path string) any {
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil
	}
	return res.Value()
}

func indentJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
