package game

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/course"
	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/metrics"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/physics"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/services/auth"
	"github.com/mcoot/fairway/internal/services/input"
	"github.com/mcoot/fairway/internal/services/progression"
	"github.com/mcoot/fairway/internal/transport"
)

// Manager owns the one game a server hosts at a time, wiring a fresh
// runner, physics world, and authenticator for each assignment
type Manager struct {
	cfg     config.GameConfig
	logger  *slog.Logger
	clock   clock.Clock
	courses *course.Library

	// onFinished is invoked after each hosted game ends, from the tick
	// goroutine. The lobby registration client uses it to re-announce
	// availability.
	onFinished func(FinishReason)

	mu      sync.Mutex
	runner  *Runner
	auth    *auth.Controller
	clients *ClientRegistry
	cancel  context.CancelFunc
}

// NewManager creates an idle manager
func NewManager(cfg config.GameConfig, logger *slog.Logger, clk clock.Clock, courses *course.Library) *Manager {
	return &Manager{
		cfg:     cfg,
		logger:  logger,
		clock:   clk,
		courses: courses,
	}
}

// SetOnFinished installs the game-finished hook. Must be called before
// the first assignment.
func (m *Manager) SetOnFinished(fn func(FinishReason)) {
	m.onFinished = fn
}

// Busy reports whether a game is currently hosted
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runner != nil
}

// StartGame accepts a lobby assignment and spins up the hosted game.
// Returns ErrServerBusy if a game is already running.
func (m *Manager) StartGame(create *protocol.CreateGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runner != nil {
		return model.ErrServerBusy
	}
	if len(create.Players) == 0 {
		return model.ErrNotInGame
	}

	courseOrder := model.CourseRoster(create.Courses)
	if len(courseOrder) == 0 {
		courseOrder = m.courses.DefaultRoster(3)
	}
	for _, id := range courseOrder {
		if _, err := m.courses.Course(id); err != nil {
			return err
		}
	}

	roster := make([]auth.RosterEntry, len(create.Players))
	playerIDs := make([]model.PlayerID, len(create.Players))
	for i, p := range create.Players {
		roster[i] = auth.RosterEntry{PlayerID: p.ID, Credential: p.Credential}
		playerIDs[i] = p.ID
	}

	authCtrl := auth.NewController(m.logger)
	authCtrl.SetRoster(roster)

	integrator := physics.NewIntegrator(physics.DefaultTuning())
	inputEngine := input.NewEngine(integrator, input.DefaultTuning(), m.logger)
	prog := progression.NewController(m.courses, m.logger)

	gameID := model.GameID(ulid.MustNew(ulid.Timestamp(m.clock.Now()), rand.Reader).String())
	if err := prog.StartGame(gameID, create.Lobby, playerIDs, courseOrder); err != nil {
		return err
	}

	clients := NewClientRegistry(m.logger)
	runner := NewRunner(m.logger, m.clock, integrator, inputEngine, prog, clients,
		m.cfg.TickRate, m.gameFinished)

	ctx, cancel := context.WithCancel(context.Background())
	m.runner = runner
	m.auth = authCtrl
	m.clients = clients
	m.cancel = cancel

	go runner.Run(ctx)

	metrics.GamesHosted.Inc()
	m.logger.Info("hosting game", "game", gameID, "lobby", create.Lobby, "players", len(playerIDs))
	return nil
}

// gameFinished tears down the hosted game. Runs on the tick goroutine.
func (m *Manager) gameFinished(reason FinishReason) {
	m.mu.Lock()
	clients := m.clients
	cancel := m.cancel
	m.runner = nil
	m.auth = nil
	m.clients = nil
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if clients != nil && reason == FinishAbandoned {
		clients.CloseAll("Game abandoned")
	}
	metrics.ConnectedPlayers.Set(0)

	m.logger.Info("game finished", "reason", reason)
	if m.onFinished != nil {
		m.onFinished(reason)
	}
}

// ServeHTTP upgrades a client websocket and runs its session
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := transport.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	m.handleClient(transport.NewConn(ws))
}

func (m *Manager) handleClient(conn *transport.Conn) {
	m.mu.Lock()
	runner := m.runner
	authCtrl := m.auth
	clients := m.clients
	m.mu.Unlock()

	if runner == nil {
		_ = conn.Close("no game in progress")
		return
	}

	connID := auth.ConnID(ulid.MustNew(ulid.Timestamp(m.clock.Now()), rand.Reader).String())
	clients.Add(connID, conn)
	authCtrl.Connected(connID)

	player, err := m.authenticate(conn, connID, authCtrl, clients, runner)
	if err != nil {
		clients.Remove(connID)
		_ = conn.Close(err.Error())
		return
	}

	m.readLoop(conn, connID, player, authCtrl, clients, runner)
}

// authenticate runs the challenge/response exchange on a new connection
func (m *Manager) authenticate(
	conn *transport.Conn,
	connID auth.ConnID,
	authCtrl *auth.Controller,
	clients *ClientRegistry,
	runner *Runner,
) (model.PlayerID, error) {
	if err := conn.Send(&protocol.RequestAuthentication{}); err != nil {
		return "", err
	}
	if err := authCtrl.BeginAuth(connID); err != nil {
		return "", err
	}

	raw, err := conn.ReadRaw()
	if err != nil {
		return "", err
	}
	msg, err := protocol.DecodeGameClient(raw)
	if err != nil {
		// Protocol decode failure is fatal for the connection
		return "", err
	}
	authMsg, ok := msg.(*protocol.AuthenticatePlayer)
	if !ok {
		return "", errors.New("expected authenticate_player")
	}

	displaced, rebind, err := authCtrl.Authenticate(connID, authMsg.ID, authMsg.Credential)
	if err != nil {
		_ = conn.Send(&protocol.AuthResult{Accepted: false, Reason: err.Error()})
		return "", err
	}

	if err := conn.Send(&protocol.AuthResult{Accepted: true}); err != nil {
		return "", err
	}

	clients.Bind(connID, authMsg.ID)
	if rebind {
		if old, ok := clients.Conn(displaced); ok {
			_ = old.Close("superseded by reconnect")
		}
		clients.Remove(displaced)
	} else {
		runner.PlayerJoined(authMsg.ID)
	}
	return authMsg.ID, nil
}

func (m *Manager) readLoop(
	conn *transport.Conn,
	connID auth.ConnID,
	player model.PlayerID,
	authCtrl *auth.Controller,
	clients *ClientRegistry,
	runner *Runner,
) {
	defer func() {
		clients.Remove(connID)
		_ = conn.Close("")
		if left, released := authCtrl.Disconnected(connID); released {
			runner.PlayerLeft(left)
		}
	}()

	for {
		raw, err := conn.ReadRaw()
		if err != nil {
			return
		}

		msg, err := protocol.DecodeGameClient(raw)
		if err != nil {
			m.logger.Warn("client protocol error, disconnecting", "player", player, "err", err)
			return
		}

		switch typed := msg.(type) {
		case *protocol.PlayerInput:
			runner.EnqueueInput(player, typed.Command())
		case *protocol.AuthenticatePlayer:
			// Already authenticated; ignore
		}
	}
}
