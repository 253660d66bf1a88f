package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erilali/mcbridge/internal/api"
	"github.com/erilali/mcbridge/internal/chat"
	"github.com/erilali/mcbridge/internal/config"
	"github.com/erilali/mcbridge/internal/game"
	"github.com/erilali/mcbridge/internal/hub"
	"github.com/erilali/mcbridge/internal/logger"
	"github.com/erilali/mcbridge/internal/util"
)

func initLogging() *logger.Logger {
	logCfg, err := util.LoadLoggerConfig(logConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading logger config: %v, using defaults\n", err)
	}
	logger.InitLogger(logCfg)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"level":       logCfg.Level,
		"log_to_file": logCfg.LogToFile,
		"log_to_json": logCfg.LogToJSON,
		"file_path":   logCfg.FilePath,
	}).Debug("Logger configuration details")
	return serverLogger
}

func runBridge(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	serverLogger := initLogging()

	cfg, err := config.Load(envFile)
	if err != nil {
		serverLogger.WithError(err).Error("Invalid configuration")
		return err
	}

	session, err := chat.NewSession(cfg.Chat.Token)
	if err != nil {
		serverLogger.WithError(err).Error("Failed to create Discord session")
		return err
	}
	chatSide := chat.NewTransport(cfg.Chat, session, logger.NewLogger("discord"))
	gameSide := game.NewTransport(cfg.Game, game.WithLogger(logger.NewLogger("minecraft")))

	nc := api.ConnectNATS(cfg.NatsURL, serverLogger)
	var publisher hub.Publisher
	if nc != nil {
		publisher = nc
	}
	bridge := hub.NewHub(gameSide, chatSide, publisher, cfg.StartupStagger, logger.NewLogger("bridge"))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bridge.Run(ctx)

	serveErr := make(chan error, 1)
	if cfg.HTTPAddr != "" {
		srv := api.NewServer(cfg.HTTPAddr, bridge, nc)
		go func() { serveErr <- api.Serve(ctx, srv, serverLogger) }()
	} else {
		close(serveErr)
	}

	if err := bridge.Start(ctx); err != nil {
		interrupted := ctx.Err() != nil
		stop()
		bridge.Stop()
		if nc != nil {
			nc.Close()
		}
		if interrupted {
			return nil
		}
		serverLogger.WithError(err).Error("Failed to start bridge")
		return err
	}

	select {
	case <-ctx.Done():
		serverLogger.Info("Shutting down...")
	case err := <-serveErr:
		if err != nil {
			serverLogger.WithError(err).Error("HTTP server failed")
		}
		<-ctx.Done()
	}

	bridge.Stop()
	<-serveErr
	if nc != nil {
		if err := nc.Drain(); err != nil {
			serverLogger.Warnf("NATS drain: %v", err)
		}
	}
	serverLogger.Info("Bridge stopped")
	return nil
}
