package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// Config is loaded with prefix MCP_SERVER.
type Config struct {
	Addr      string `default:":8080"`
	Transport string `default:"http"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Transport)) {
	case "http", "stdio":
		return nil
	default:
		return fmt.Errorf("unsupported MCP_SERVER_TRANSPORT %q", c.Transport)
	}
}

// Serve runs s until ctx is cancelled (http) or stdin closes (stdio).
func Serve(ctx context.Context, cfg Config, s *server.MCPServer) error {
	if strings.EqualFold(strings.TrimSpace(cfg.Transport), "stdio") {
		return server.ServeStdio(s)
	}

	httpServer := server.NewStreamableHTTPServer(s)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
