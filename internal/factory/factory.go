// Package factory wires application components for the two binaries.
package factory

import (
	"io"
	"log/slog"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/course"
	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/dependencies/random"
	"github.com/mcoot/fairway/internal/game"
	"github.com/mcoot/fairway/internal/lobbyserver"
	"github.com/mcoot/fairway/internal/services/broker"
	"github.com/mcoot/fairway/internal/services/credential"
	"github.com/mcoot/fairway/internal/services/lobby"
	"github.com/mcoot/fairway/internal/storage"
	"github.com/mcoot/fairway/internal/storage/memory"
	redisstorage "github.com/mcoot/fairway/internal/storage/redis"
)

// LobbyApp contains the wired lobby server components
type LobbyApp struct {
	Storage storage.Storage

	Clock  clock.Clock
	Random random.Random

	CredentialController *credential.Controller
	LobbyController      *lobby.Controller
	BrokerController     *broker.Controller

	Server *lobbyserver.Server
}

// NewLobbyApp creates a lobby server application with all dependencies
// wired. Storage is in-memory unless Redis is enabled in the config.
func NewLobbyApp(cfg config.LobbyConfig, logger *slog.Logger) (*LobbyApp, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	if cfg.Redis.Enabled {
		redisStore, err := redisstorage.New(redisstorage.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			PlayerTTL:    cfg.Redis.PlayerTTL,
			LobbyTTL:     cfg.Redis.LobbyTTL,
		})
		if err != nil {
			return nil, err
		}
		store = redisStore
	} else {
		store = memory.New()
	}

	clk := clock.New()
	rnd := random.New()

	return newLobbyAppWithDependencies(store, clk, rnd, logger), nil
}

// newLobbyAppWithDependencies wires a LobbyApp from explicit dependencies
// (useful for testing)
func newLobbyAppWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *LobbyApp {
	credentialController := credential.NewController(store, clk, rnd)
	lobbyController := lobby.NewController(store, clk, rnd, logger)
	brokerController := broker.NewController(logger)

	server := lobbyserver.NewServer(logger, clk, credentialController, lobbyController, brokerController)

	return &LobbyApp{
		Storage:              store,
		Clock:                clk,
		Random:               rnd,
		CredentialController: credentialController,
		LobbyController:      lobbyController,
		BrokerController:     brokerController,
		Server:               server,
	}
}

// GameApp contains the wired game server components
type GameApp struct {
	Clock   clock.Clock
	Courses *course.Library

	Manager     *game.Manager
	LobbyClient *game.LobbyClient
}

// NewGameApp creates a game server application. Built-in courses are
// always available; cfg.CourseDir may add or override definitions.
func NewGameApp(cfg config.GameConfig, logger *slog.Logger) (*GameApp, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	courses := course.NewLibrary()
	if cfg.CourseDir != "" {
		if err := courses.LoadDir(cfg.CourseDir); err != nil {
			return nil, err
		}
	}

	clk := clock.New()
	manager := game.NewManager(cfg, logger, clk, courses)
	lobbyClient := game.NewLobbyClient(cfg, logger, manager)

	return &GameApp{
		Clock:       clk,
		Courses:     courses,
		Manager:     manager,
		LobbyClient: lobbyClient,
	}, nil
}
