package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/customerdb"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
	_ "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger/autoload"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/mcpserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverCfg := configx.MustNew[mcpserver.Config]("MCP_SERVER")
	dbCfg := configx.MustNew[customerdb.Config]("DB")

	// stdout carries the protocol in stdio mode
	if strings.EqualFold(strings.TrimSpace(serverCfg.Transport), "stdio") {
		if logCfg, err := configx.New[logx.Config]("LOG"); err == nil && !strings.EqualFold(logCfg.Output, "discard") {
			logCfg.Output = "stderr"
			logx.Init(*logCfg)
		}
	}

	store, err := customerdb.Open(ctx, *dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open customer store")
	}
	defer store.Close()

	log.Info().
		Str("transport", serverCfg.Transport).
		Str("addr", serverCfg.Addr).
		Msg("customer service tool server starting")

	if err := mcpserver.Serve(ctx, *serverCfg, mcpserver.New(store)); err != nil {
		log.Error().Err(err).Msg("tool server stopped")
		os.Exit(1)
	}
}
