// Package metrics defines the Prometheus instrumentation for both the
// lobby server and the game server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fairway"

// Lobby server metrics
var (
	ConnectedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "lobby",
		Name:      "connected_users",
		Help:      "Currently connected user sessions",
	})

	OpenLobbies = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "lobby",
		Name:      "open_lobbies",
		Help:      "Lobbies currently in the directory",
	})

	AvailableGameServers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "lobby",
		Name:      "available_game_servers",
		Help:      "Game servers ready to host a game",
	})

	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lobby",
		Name:      "games_started_total",
		Help:      "Games successfully handed off to a game server",
	})

	GameStartFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lobby",
		Name:      "game_start_failures_total",
		Help:      "Game start requests that could not be satisfied",
	}, []string{"reason"})
)

// Game server metrics
var (
	ConnectedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "connected_players",
		Help:      "Authenticated players in the hosted game",
	})

	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "ticks_total",
		Help:      "Simulation ticks executed",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent per simulation tick",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	CommandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "commands_dropped_total",
		Help:      "Player commands rejected by input validation",
	}, []string{"reason"})

	GamesHosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "games_hosted_total",
		Help:      "Games this server has hosted",
	})
)
