package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/factory"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the lobby server command
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "fairway-lobby",
		Short: "Fairway lobby server",
		Long: `The lobby server issues player identities, tracks lobbies, and
brokers game starts onto registered game servers.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadLobby(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().String("listen_addr", "", "HTTP listen address")
	cmd.Flags().String("log_level", "", "log level (debug, info, warn, error)")
	cmd.Flags().Bool("redis.enabled", false, "use Redis-backed storage")
	cmd.Flags().String("redis.url", "", "Redis connection URL")

	return cmd
}

func run(cfg config.LobbyConfig) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := factory.NewLobbyApp(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "err", err)
		return err
	}
	defer func() { _ = app.Storage.Close() }()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: app.Server.Router(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("lobby server started", "addr", cfg.ListenAddr)

	select {
	case err := <-errCh:
		logger.Error("server error", "err", err)
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
			return err
		}
	}

	logger.Info("lobby server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
