package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/customerdb"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/mcpserver"
	qstashx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/qstash"
)

// Config gathers everything Bootstrap needs. Each part is loaded with its own
// prefix: BUS, LLM, MCP, DB and QSTASH.
type Config struct {
	Bus    a2a.Config
	LLM    llmx.Config
	Tools  tool.Config
	DB     customerdb.Config
	QStash qstashx.Config
}

// Bootstrap wires generators, the tool bridge and the escalation notifier,
// then builds the System. With MCP_TRANSPORT=inprocess the customer store and
// tool server run inside this process.
func Bootstrap(ctx context.Context, cfg Config) (*System, error) {
	gens, err := llmx.NewGenerators(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create generators: %w", err)
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	bridge, err := connectTools(ctx, cfg, &closers)
	if err != nil {
		closeAll()
		return nil, err
	}

	deps := Deps{Generators: gens, Tools: bridge}
	if cfg.QStash.Enabled() {
		notifier, err := qstashx.NewClient(cfg.QStash)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("create qstash client: %w", err)
		}
		deps.Notifier = notifier
		deps.EscalationTopic = cfg.QStash.EscalationTopic
	}

	sys, err := New(ctx, cfg.Bus, deps)
	if err != nil {
		closeAll()
		return nil, err
	}
	for _, fn := range closers {
		sys.AddCloser(fn)
	}

	sys.logger.Info().
		Bool("llm_enabled", cfg.LLM.Enabled()).
		Str("tool_transport", cfg.Tools.Transport).
		Bool("escalation_notifier", deps.Notifier != nil).
		Msg("system bootstrapped")
	return sys, nil
}

func connectTools(ctx context.Context, cfg Config, closers *[]func() error) (*tool.Bridge, error) {
	var bridge *tool.Bridge
	if strings.EqualFold(strings.TrimSpace(cfg.Tools.Transport), tool.TransportInProcess) {
		store, err := customerdb.Open(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open customer store: %w", err)
		}
		*closers = append(*closers, store.Close)

		bridge, err = tool.NewInProcess(ctx, mcpserver.New(store), cfg.Tools.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("start embedded tool server: %w", err)
		}
	} else {
		var err error
		bridge, err = tool.Connect(ctx, cfg.Tools)
		if err != nil {
			return nil, fmt.Errorf("connect tool server: %w", err)
		}
	}
	*closers = append(*closers, bridge.Close)

	tools, err := bridge.ListTools(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	if len(tools) == 0 {
		return nil, errors.New("tool server advertises no tools")
	}
	return bridge, nil
}
