package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MobiAdvisor-core/server/internal/server"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srvCfg := server.Config{
		Advisor:  a.advisor,
		Catalog:  a.store,
		Messages: a.messages,
	}
	if a.indexer != nil {
		srvCfg.Indexer = a.indexer
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	logx.Info().Str("environment", cfg.Environment).Bool("agent", cfg.LLM.APIKey != "" && cfg.Conversation.AgentEnabled).
		Bool("vector", a.searcher != nil).Bool("persistence", a.messages != nil).Msg("advisor ready")
	return srv.Run(ctx, addr)
}
