package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/parity-stake/internal/api"
	"github.com/theblitlabs/parity-stake/internal/api/handlers"
	"github.com/theblitlabs/parity-stake/internal/monitoring/health"
	"github.com/theblitlabs/parity-stake/internal/server"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/telemetry"
	"github.com/theblitlabs/parity-stake/internal/utils/cliutil"
	"github.com/theblitlabs/parity-stake/internal/utils/configutil"
	"github.com/theblitlabs/parity-stake/internal/utils/errorutil"
	"github.com/theblitlabs/parity-stake/internal/watcher"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	pruneInterval   = 10 * time.Minute

	// blocks older than this many poll intervals mark the chain as stalled
	staleBlockFactor = 5
)

func NewServeCommand() *cobra.Command {
	log := logger.WithComponent("server")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "serve",
		Short: "Serve the staking page and its JSON API",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			return RunServer()
		},
	}, log)
}

func RunServer() error {
	log := logger.WithComponent("server")

	cfg, err := configutil.GetConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	c, err := connect(ctx, cfg, false)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to the node")
		return err
	}
	defer c.Close()

	if signer, ok := c.submitter.SignerAddress(); ok {
		log.Info().Str("wallet", signer.Hex()).Msg("Wallet loaded")
	} else {
		log.Warn().Msg("No private key stored - the page is read-only until 'parity-stake auth' is run")
	}

	var heads watcher.HeadSubscriber
	if ws := c.client.WS(); ws != nil {
		heads = ws
	}
	blocks := watcher.New(heads, c.client, cfg.Ethereum.PollInterval)
	blocks.Start(ctx)
	defer blocks.Stop()

	checker := health.NewHealthChecker(cfg.Ethereum.PollInterval)
	checker.Register("node", health.NodeCheck(c.client))
	checker.Register("blocks", health.ProgressCheck(blocks, staleBlockFactor*cfg.Ethereum.PollInterval))
	checker.Register("signer", health.SignerCheck(c.submitter.Available))
	checker.Start(ctx)
	defer checker.Stop()

	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	go pruneSessions(ctx, sessions)

	stakingHandler := handlers.NewStakingHandler(c.service, sessions, blocks, cfg.Ethereum.RPCTimeout)
	wsHandler := handlers.NewWebSocketHandler(stakingHandler, blocks, cfg.Server.Websocket)
	router := api.NewRouter(stakingHandler, wsHandler, sessions, checker, cfg.Server.Endpoint)

	srv := server.NewServer(cfg.Server, router)
	if err := srv.VerifyPortAvailable(); err != nil {
		log.Error().Err(err).Str("address", srv.Addr()).Msg("Server port unavailable")
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", srv.Addr()).
			Str("endpoint", cfg.Server.Endpoint).
			Str("staking_contract", cfg.Ethereum.StakingContract().Hex()).
			Msg("Server starting")
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, gracefully shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	wsHandler.Shutdown()
	if err := srv.Stop(shutdownCtx); err != nil {
		errorutil.HandleContextError(log, shutdownCtx, err,
			"Server shutdown timed out", "Server shutdown failed")
	}
	errorutil.HandleError(log, shutdownTelemetry(shutdownCtx), "Failed to flush telemetry")

	log.Info().Msg("Server stopped")
	return nil
}

func pruneSessions(ctx context.Context, sessions *session.Manager) {
	log := logger.WithComponent("session")
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(); n > 0 {
				log.Debug().Int("pruned", n).Int("active", sessions.Active()).Msg("Expired sessions removed")
			}
		}
	}
}
