package lobbyserver

import (
	"sync"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/transport"
)

// userSession is one live user connection. The plaintext credential is
// held only for the lifetime of the session, so it can be forwarded to a
// game server at handoff; at rest only the hash exists.
type userSession struct {
	player     model.PlayerID
	credential string
	conn       *transport.Conn
}

// sessionRegistry tracks live user sessions by player
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[model.PlayerID]*userSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[model.PlayerID]*userSession)}
}

// add registers a session, returning any previous session for the same
// player so the caller can close it
func (r *sessionRegistry) add(s *userSession) *userSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[s.player]
	r.sessions[s.player] = s
	return prev
}

// remove drops a session if it is still the registered one. Returns false
// when a newer session for the same player has displaced this one, in
// which case the caller must not treat the teardown as the player leaving.
func (r *sessionRegistry) remove(s *userSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.player] != s {
		return false
	}
	delete(r.sessions, s.player)
	return true
}

// get returns the live session for a player
func (r *sessionRegistry) get(player model.PlayerID) (*userSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[player]
	return s, ok
}

// sendTo delivers a message to one player's session, if connected
func (r *sessionRegistry) sendTo(player model.PlayerID, msg protocol.Message) {
	if s, ok := r.get(player); ok {
		_ = s.conn.Send(msg)
	}
}

// broadcast delivers a message to every listed player
func (r *sessionRegistry) broadcast(players []model.PlayerID, msg protocol.Message) {
	for _, p := range players {
		r.sendTo(p, msg)
	}
}
