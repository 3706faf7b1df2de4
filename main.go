package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/orchestrator"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/customerdb"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/httpapi"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
	_ "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/qstash"
	tracingx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/tracing"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/tui"
)

const (
	modeChat  = "chat"
	modeServe = "serve"
	modeQuery = "query"
)

type AppConfig struct {
	Mode     string `default:"chat"`
	Query    string
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8000"`
}

// Validate lets a positional argument override APP_MODE: `app serve`, or
// `app query "Get customer 5"`.
func (c *AppConfig) Validate() error {
	if arg := strings.TrimSpace(flag.Arg(0)); arg != "" {
		c.Mode = arg
		if rest := flag.Args()[1:]; len(rest) > 0 {
			c.Query = strings.Join(rest, " ")
		}
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	switch c.Mode {
	case modeChat, modeServe:
		return nil
	case modeQuery:
		if strings.TrimSpace(c.Query) == "" {
			return errors.New("query mode needs APP_QUERY or a query argument")
		}
		return nil
	default:
		return fmt.Errorf("unsupported APP_MODE %q", c.Mode)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	switch appCfg.Mode {
	case modeChat:
		moveStdoutLogs("discard")
	case modeQuery:
		moveStdoutLogs("stderr")
	}
	cfg := orchestrator.Config{
		Bus:    *configx.MustNew[a2a.Config]("BUS"),
		LLM:    *configx.MustNew[llmx.Config]("LLM"),
		Tools:  *configx.MustNew[tool.Config]("MCP"),
		DB:     *configx.MustNew[customerdb.Config]("DB"),
		QStash: *configx.MustNew[qstashx.Config]("QSTASH"),
	}
	traceCfg := configx.MustNew[tracingx.Config]("TRACE")

	shutdownTracing, err := tracingx.Setup(ctx, *traceCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	sys, err := orchestrator.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap agents")
	}
	defer func() {
		if err := sys.Close(); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}()

	if err := run(ctx, *appCfg, sys); err != nil {
		log.Error().Err(err).Str("mode", appCfg.Mode).Msg("exited with error")
		os.Exit(1)
	}
}

// moveStdoutLogs keeps log lines off stdout when stdout belongs to the chat
// screen or the query result. Other LOG_OUTPUT targets are left alone.
func moveStdoutLogs(output string) {
	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return
	}
	if strings.EqualFold(strings.TrimSpace(logCfg.Output), "stdout") {
		logCfg.Output = output
	}
	logx.Init(*logCfg)
}

func run(ctx context.Context, cfg AppConfig, sys *orchestrator.System) error {
	switch cfg.Mode {
	case modeServe:
		h := httpapi.NewHandler(sys, httpapi.WithEmptyQueryError(orchestrator.ErrEmptyQuery))
		return httpapi.Serve(ctx, cfg.HTTPAddr, httpapi.New(h))
	case modeQuery:
		result, err := sys.ProcessQuery(ctx, cfg.Query, "")
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return tui.Run(ctx, sys)
	}
}
