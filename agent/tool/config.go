package tool

import (
	"fmt"
	"strings"
	"time"
)

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// TransportInProcess serves the tools from an embedded server.
const TransportInProcess = "inprocess"

// Config selects how the bridge reaches the tool server. Loaded with prefix MCP.
type Config struct {
	Transport   string        `default:"inprocess"`
	URL         string        `default:"http://localhost:8080/mcp"`
	Command     string
	Args        []string
	Env         []string
	CallTimeout time.Duration `split_words:"true" default:"30s"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Transport)) {
	case TransportHTTP:
		if strings.TrimSpace(c.URL) == "" {
			return fmt.Errorf("MCP_URL is required for transport=%s", TransportHTTP)
		}
	case TransportStdio:
		if strings.TrimSpace(c.Command) == "" {
			return fmt.Errorf("MCP_COMMAND is required for transport=%s", TransportStdio)
		}
	case TransportInProcess:
	default:
		return fmt.Errorf("unsupported MCP_TRANSPORT %q", c.Transport)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("MCP_CALL_TIMEOUT must be >= 0")
	}
	return nil
}

// endpoint normalizes the server URL so it always ends with /mcp.
func (c Config) endpoint() string {
	url := strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if !strings.HasSuffix(url, "/mcp") {
		url += "/mcp"
	}
	return url
}
