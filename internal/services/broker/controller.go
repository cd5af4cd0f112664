package broker

import (
	"log/slog"
	"sync"

	"github.com/mcoot/fairway/internal/model"
)

// ServerID identifies a registered game server connection
type ServerID string

// ServerState is the availability state of a registered game server
type ServerState string

const (
	// StateUnknown means the server has connected but not yet announced itself
	StateUnknown ServerState = "unknown"
	// StateAvailable means the server is ready to host a game
	StateAvailable ServerState = "available"
	// StateBusy means the server is hosting, or has been assigned a lobby
	StateBusy ServerState = "busy"
)

// Registration is the broker's view of one game server connection
type Registration struct {
	ID      ServerID
	State   ServerState
	Address string

	// PendingLobby is set between assignment and game-created confirmation
	PendingLobby model.LobbyCode
}

// Controller tracks game server availability and assigns lobbies to
// servers. Assignment is atomic: a server chosen for a lobby is marked
// busy before the caller hands the lobby off, so two concurrent starts
// can never pick the same server.
type Controller struct {
	logger *slog.Logger

	mu      sync.Mutex
	servers map[ServerID]*Registration
	order   []ServerID
}

// NewController creates a new broker Controller
func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		logger:  logger,
		servers: make(map[ServerID]*Registration),
	}
}

// Register adds a newly-connected game server in the unknown state
func (c *Controller) Register(id ServerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.servers[id]; ok {
		return
	}
	c.servers[id] = &Registration{
		ID:    id,
		State: StateUnknown,
	}
	c.order = append(c.order, id)
	c.logger.Info("game server registered", "server", id)
}

// Unregister removes a game server on disconnect. If an assignment was in
// flight, the pending lobby code is returned so the caller can fail the
// start and return the lobby to a joinable state.
func (c *Controller) Unregister(id ServerID) (model.LobbyCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.servers[id]
	if !ok {
		return "", false
	}

	delete(c.servers, id)
	for i, sid := range c.order {
		if sid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.logger.Info("game server unregistered", "server", id, "state", reg.State)

	if reg.PendingLobby != "" {
		return reg.PendingLobby, true
	}
	return "", false
}

// SetAvailable marks a server as ready to host, recording the address
// clients should be directed to
func (c *Controller) SetAvailable(id ServerID, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.servers[id]
	if !ok {
		return model.ErrServerNotFound
	}

	reg.State = StateAvailable
	reg.Address = address
	reg.PendingLobby = ""
	return nil
}

// SetBusy marks a server as hosting
func (c *Controller) SetBusy(id ServerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.servers[id]
	if !ok {
		return model.ErrServerNotFound
	}

	reg.State = StateBusy
	reg.PendingLobby = ""
	return nil
}

// Assign picks the first available server for a lobby and marks it busy.
// Returns ErrNoCapacity when no server is available. The returned
// registration is a copy; the caller sends the handoff over the matching
// connection and confirms or releases the assignment afterwards.
func (c *Controller) Assign(lobby model.LobbyCode) (Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.order {
		reg := c.servers[id]
		if reg.State != StateAvailable {
			continue
		}

		reg.State = StateBusy
		reg.PendingLobby = lobby
		c.logger.Info("lobby assigned to game server", "lobby", lobby, "server", id)
		return *reg, nil
	}

	return Registration{}, model.ErrNoCapacity
}

// ConfirmAssignment records that the server acknowledged the handoff
func (c *Controller) ConfirmAssignment(id ServerID, lobby model.LobbyCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.servers[id]
	if !ok {
		return model.ErrServerNotFound
	}
	if reg.PendingLobby != lobby {
		return model.ErrGameNotFound
	}

	reg.PendingLobby = ""
	return nil
}

// ReleaseAssignment undoes an assignment whose handoff failed before the
// server acknowledged it, returning the server to the unknown state until
// it announces itself again
func (c *Controller) ReleaseAssignment(id ServerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.servers[id]
	if !ok {
		return
	}

	reg.State = StateUnknown
	reg.PendingLobby = ""
}

// AvailableCount returns the number of servers ready to host
func (c *Controller) AvailableCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, reg := range c.servers {
		if reg.State == StateAvailable {
			count++
		}
	}
	return count
}

// Interface for dependency injection
type ControllerInterface interface {
	Register(id ServerID)
	Unregister(id ServerID) (model.LobbyCode, bool)
	SetAvailable(id ServerID, address string) error
	SetBusy(id ServerID) error
	Assign(lobby model.LobbyCode) (Registration, error)
	ConfirmAssignment(id ServerID, lobby model.LobbyCode) error
	ReleaseAssignment(id ServerID)
	AvailableCount() int
}

var _ ControllerInterface = (*Controller)(nil)
