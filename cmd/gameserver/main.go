package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/factory"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the game server command
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "fairway-gameserver",
		Short: "Fairway game server",
		Long: `The game server registers with a lobby server and hosts one
game at a time: authenticating the assigned players, running the
simulation loop, and streaming authoritative state to clients.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadGame(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().String("listen_addr", "", "websocket listen address for game clients")
	cmd.Flags().String("publish_address", "", "address advertised to the lobby server")
	cmd.Flags().String("lobby_url", "", "lobby server registration endpoint")
	cmd.Flags().String("course_dir", "", "directory of YAML course definitions")
	cmd.Flags().String("log_level", "", "log level (debug, info, warn, error)")
	cmd.Flags().Int("tick_rate", 0, "simulation frequency in Hz")

	return cmd
}

func run(cfg config.GameConfig) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := factory.NewGameApp(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "err", err)
		return err
	}

	router := mux.NewRouter()
	router.Handle("/ws", app.Manager)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
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

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	// Registration with the lobby server runs for the process lifetime;
	// exhausting the handshake retry budget is fatal
	registrationErrCh := make(chan error, 1)
	go func() {
		registrationErrCh <- app.LobbyClient.Run(ctx)
	}()

	logger.Info("game server started",
		"addr", cfg.ListenAddr, "publish_address", cfg.PublishAddress, "lobby_url", cfg.LobbyURL)

	select {
	case err := <-serverErrCh:
		logger.Error("server error", "err", err)
		return err
	case err := <-registrationErrCh:
		if err != nil {
			logger.Error("lobby registration failed", "err", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
		return err
	}

	logger.Info("game server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
