package auth

import (
	"crypto/subtle"
	"log/slog"
	"sync"

	"github.com/mcoot/fairway/internal/model"
)

// ConnID identifies one client connection to the game server
type ConnID string

// ConnState is the authentication state of a client connection
type ConnState string

const (
	// StateConnected means the connection is open but no challenge sent
	StateConnected ConnState = "connected"
	// StateAwaitingAuth means the server has asked the client to identify
	StateAwaitingAuth ConnState = "awaiting_auth"
	// StateAuthenticated means the connection is bound to a roster player
	StateAuthenticated ConnState = "authenticated"
	// StateRejected means authentication failed; the connection should close
	StateRejected ConnState = "rejected"
)

// RosterEntry is one expected player from the lobby handoff
type RosterEntry struct {
	PlayerID   model.PlayerID
	Credential string
}

type connection struct {
	state  ConnState
	player model.PlayerID
}

// Controller authenticates game client connections against the roster
// received at handoff. A player reconnecting mid-game re-authenticates and
// rebinds to the same player record; the stale binding is dropped.
type Controller struct {
	logger *slog.Logger

	mu     sync.Mutex
	roster map[model.PlayerID]string
	conns  map[ConnID]*connection
	bound  map[model.PlayerID]ConnID
}

// NewController creates a new auth Controller with an empty roster
func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		logger: logger,
		roster: make(map[model.PlayerID]string),
		conns:  make(map[ConnID]*connection),
		bound:  make(map[model.PlayerID]ConnID),
	}
}

// SetRoster replaces the expected player set. Called once per game at
// handoff, before any client connects.
func (c *Controller) SetRoster(entries []RosterEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roster = make(map[model.PlayerID]string, len(entries))
	for _, e := range entries {
		c.roster[e.PlayerID] = e.Credential
	}
	c.conns = make(map[ConnID]*connection)
	c.bound = make(map[model.PlayerID]ConnID)
}

// Connected records a new client connection
func (c *Controller) Connected(id ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conns[id] = &connection{state: StateConnected}
}

// BeginAuth transitions a connection to awaiting authentication. Call
// after sending the identify challenge.
func (c *Controller) BeginAuth(id ConnID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	conn.state = StateAwaitingAuth
	return nil
}

// Authenticate validates a client's claimed identity against the roster.
// Returns ErrPlayerNotFound for a player not in this game and
// ErrUnauthorized for a credential mismatch; both leave the connection
// rejected and mutate no other state. On success the connection is bound
// to the player, displacing any stale binding from a previous connection.
func (c *Controller) Authenticate(id ConnID, playerID model.PlayerID, credential string) (ConnID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok {
		return "", false, model.ErrPlayerNotFound
	}

	expected, inRoster := c.roster[playerID]
	if !inRoster {
		conn.state = StateRejected
		c.logger.Warn("authentication failed, player not in roster", "player", playerID)
		return "", false, model.ErrPlayerNotFound
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(credential)) != 1 {
		conn.state = StateRejected
		c.logger.Warn("authentication failed, credential mismatch", "player", playerID)
		return "", false, model.ErrUnauthorized
	}

	var displaced ConnID
	wasDisplaced := false
	if prev, bound := c.bound[playerID]; bound && prev != id {
		if prevConn, ok := c.conns[prev]; ok {
			prevConn.state = StateRejected
		}
		displaced = prev
		wasDisplaced = true
	}

	conn.state = StateAuthenticated
	conn.player = playerID
	c.bound[playerID] = id

	c.logger.Info("player authenticated", "player", playerID, "rebind", wasDisplaced)
	return displaced, wasDisplaced, nil
}

// Disconnected removes a connection, releasing its player binding if the
// binding still points at this connection
func (c *Controller) Disconnected(id ConnID) (model.PlayerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok {
		return "", false
	}
	delete(c.conns, id)

	if conn.state != StateAuthenticated {
		return "", false
	}
	if c.bound[conn.player] == id {
		delete(c.bound, conn.player)
		return conn.player, true
	}
	return "", false
}

// State returns the authentication state of a connection
func (c *Controller) State(id ConnID) (ConnState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok {
		return "", false
	}
	return conn.state, true
}

// PlayerFor returns the player bound to a connection
func (c *Controller) PlayerFor(id ConnID) (model.PlayerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[id]
	if !ok || conn.state != StateAuthenticated {
		return "", false
	}
	return conn.player, true
}

// AuthenticatedPlayers returns the set of players with a live binding
func (c *Controller) AuthenticatedPlayers() map[model.PlayerID]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	players := make(map[model.PlayerID]bool, len(c.bound))
	for p := range c.bound {
		players[p] = true
	}
	return players
}

// Interface for dependency injection
type ControllerInterface interface {
	SetRoster(entries []RosterEntry)
	Connected(id ConnID)
	BeginAuth(id ConnID) error
	Authenticate(id ConnID, playerID model.PlayerID, credential string) (ConnID, bool, error)
	Disconnected(id ConnID) (model.PlayerID, bool)
	State(id ConnID) (ConnState, bool)
	PlayerFor(id ConnID) (model.PlayerID, bool)
	AuthenticatedPlayers() map[model.PlayerID]bool
}

var _ ControllerInterface = (*Controller)(nil)
