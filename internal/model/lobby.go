package model

import "time"

// LobbyCode is a human-readable identifier for joining lobbies
type LobbyCode string

// LobbyState represents the current state of a lobby
type LobbyState string

const (
	LobbyStateWaiting LobbyState = "waiting" // No game in progress
	LobbyStateInGame  LobbyState = "in_game" // Game handed off to a game server
)

// LobbyMember represents a player's membership in a lobby
type LobbyMember struct {
	PlayerID PlayerID
	JoinedAt time.Time
}

// Lobby represents a group of players intending to start one game together.
// The owner is the player whose session created the lobby; only the owner
// may request a game start. A lobby with zero members is destroyed.
type Lobby struct {
	Code      LobbyCode
	State     LobbyState
	Owner     PlayerID
	Members   []LobbyMember
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetMember returns the member with the given player ID, or nil if not found
func (l *Lobby) GetMember(playerID PlayerID) *LobbyMember {
	for i := range l.Members {
		if l.Members[i].PlayerID == playerID {
			return &l.Members[i]
		}
	}
	return nil
}

// MemberIDs returns the player IDs of all members, in join order
func (l *Lobby) MemberIDs() []PlayerID {
	ids := make([]PlayerID, len(l.Members))
	for i, m := range l.Members {
		ids[i] = m.PlayerID
	}
	return ids
}
