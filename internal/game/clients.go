package game

import (
	"log/slog"
	"sync"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/services/auth"
	"github.com/mcoot/fairway/internal/transport"
)

// ClientRegistry tracks live client connections and their player
// bindings, and fans messages out to them
type ClientRegistry struct {
	logger *slog.Logger

	mu       sync.Mutex
	byConn   map[auth.ConnID]*transport.Conn
	byPlayer map[model.PlayerID]auth.ConnID
}

var _ Sender = (*ClientRegistry)(nil)

// NewClientRegistry creates an empty registry
func NewClientRegistry(logger *slog.Logger) *ClientRegistry {
	return &ClientRegistry{
		logger:   logger,
		byConn:   make(map[auth.ConnID]*transport.Conn),
		byPlayer: make(map[model.PlayerID]auth.ConnID),
	}
}

// Add registers an open connection
func (c *ClientRegistry) Add(id auth.ConnID, conn *transport.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byConn[id] = conn
}

// Bind associates a connection with an authenticated player
func (c *ClientRegistry) Bind(id auth.ConnID, player model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPlayer[player] = id
}

// Remove drops a connection. The player binding is only released if it
// still points at this connection.
func (c *ClientRegistry) Remove(id auth.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byConn, id)
	for player, bound := range c.byPlayer {
		if bound == id {
			delete(c.byPlayer, player)
		}
	}
}

// Conn returns the connection with the given id
func (c *ClientRegistry) Conn(id auth.ConnID) (*transport.Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.byConn[id]
	return conn, ok
}

// SendTo delivers a message to one player's bound connection
func (c *ClientRegistry) SendTo(player model.PlayerID, msg protocol.Message) {
	c.mu.Lock()
	id, ok := c.byPlayer[player]
	conn := c.byConn[id]
	c.mu.Unlock()

	if !ok || conn == nil {
		return
	}
	if err := conn.Send(msg); err != nil {
		c.logger.Debug("send failed", "player", player, "err", err)
	}
}

// Broadcast delivers a message to every bound connection
func (c *ClientRegistry) Broadcast(msg protocol.Message) {
	c.mu.Lock()
	conns := make([]*transport.Conn, 0, len(c.byPlayer))
	for _, id := range c.byPlayer {
		if conn, ok := c.byConn[id]; ok {
			conns = append(conns, conn)
		}
	}
	c.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Send(msg); err != nil {
			c.logger.Debug("broadcast send failed", "err", err)
		}
	}
}

// CloseAll closes every connection with the given reason
func (c *ClientRegistry) CloseAll(reason string) {
	c.mu.Lock()
	conns := make([]*transport.Conn, 0, len(c.byConn))
	for _, conn := range c.byConn {
		conns = append(conns, conn)
	}
	c.byConn = make(map[auth.ConnID]*transport.Conn)
	c.byPlayer = make(map[model.PlayerID]auth.ConnID)
	c.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(reason)
	}
}
