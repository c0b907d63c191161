package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/game"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the websocket game server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger(os.Stdout, cfg.LogLevel, true)
	slog.SetDefault(logger)

	client := newRedis(cfg.Redis)
	if client != nil {
		defer client.Close()
	}
	source, err := contentSource(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("content source: %w", err)
	}

	var sink results.Sink = results.LogSink{Logger: logger}
	var board server.Leaderboard
	if client != nil {
		redisSink, err := results.NewRedisSink(client, cfg.Redis.KeyPrefix, cfg.Redis.ResultsKeep)
		if err != nil {
			return fmt.Errorf("results sink: %w", err)
		}
		sink = results.Fanout{sink, redisSink}
		board = redisSink
	}

	engine := bollywood.NewEngine(logger)
	managerPID := engine.Spawn(bollywood.NewProps(game.NewSessionManagerProducer(game.ManagerArgs{
		Config: cfg,
		Source: source,
		Sink:   sink,
		Logger: logger,
	})))
	defer engine.Shutdown(5 * time.Second)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(engine, managerPID, cfg, board, logger).Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal, gracefully stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
