// Package protocol defines the wire messages exchanged between clients,
// the lobby service, and game servers. Every message kind is listed in a
// fixed table per channel direction; there is no runtime registration.
package protocol

import "github.com/mcoot/fairway/internal/model"

// MessageType identifies a message kind on the wire
type MessageType string

const (
	// Client → lobby
	TypeUserHello   MessageType = "hello"
	TypeCreateLobby MessageType = "create_lobby"
	TypeListLobbies MessageType = "list_lobbies"
	TypeJoinLobby   MessageType = "join_lobby"
	TypeLeaveLobby  MessageType = "leave_lobby"
	TypeStartGame   MessageType = "start_game"

	// Lobby → client
	TypeLobbyHello       MessageType = "lobby_hello"
	TypeLobbyCreated     MessageType = "lobby_created"
	TypeAvailableLobbies MessageType = "available_lobbies"
	TypeLobbyJoined      MessageType = "lobby_joined"
	TypeJoinFailed       MessageType = "join_failed"
	TypePlayerJoined     MessageType = "player_joined"
	TypePlayerLeft       MessageType = "player_left"
	TypeGameStarted      MessageType = "game_started"
	TypeGameStartFailed  MessageType = "game_start_failed"

	// Game server → lobby
	TypeGameServerHello MessageType = "game_server_hello"
	TypeAvailable       MessageType = "available"
	TypeBusy            MessageType = "busy"
	TypeGameCreated     MessageType = "game_created"

	// Lobby → game server
	TypeLobbyServerHello MessageType = "lobby_server_hello"
	TypeCreateGame       MessageType = "create_game"

	// Game server → client
	TypeRequestAuthentication MessageType = "request_authentication"
	TypeAuthResult            MessageType = "auth_result"
	TypeCourseStarted         MessageType = "course_started"
	TypeHoleStarted           MessageType = "hole_started"
	TypeGameState             MessageType = "game_state"
	TypeInventoryUpdate       MessageType = "inventory_update"
	TypePlayerHoledOut        MessageType = "player_holed_out"
	TypeGameCompleted         MessageType = "game_completed"

	// Client → game server
	TypeAuthenticatePlayer MessageType = "authenticate_player"
	TypePlayerInput        MessageType = "player_input"
)

// Message is implemented by every wire message
type Message interface {
	Type() MessageType
}

// Client → lobby messages

// UserHello opens a lobby connection. A returning client replays its
// identity and credential; a first-time client sends both empty.
type UserHello struct {
	PlayerID   model.PlayerID `json:"player_id,omitempty"`
	Credential string         `json:"credential,omitempty"`
}

func (UserHello) Type() MessageType { return TypeUserHello }

// CreateLobby requests a fresh lobby owned by the sender
type CreateLobby struct{}

func (CreateLobby) Type() MessageType { return TypeCreateLobby }

// ListLobbies requests a snapshot of joinable lobby codes
type ListLobbies struct{}

func (ListLobbies) Type() MessageType { return TypeListLobbies }

// JoinLobby requests membership in an existing lobby
type JoinLobby struct {
	Lobby model.LobbyCode `json:"lobby"`
}

func (JoinLobby) Type() MessageType { return TypeJoinLobby }

// LeaveLobby removes the sender from its current lobby
type LeaveLobby struct{}

func (LeaveLobby) Type() MessageType { return TypeLeaveLobby }

// StartGame asks the broker to hand the sender's lobby to a game server.
// Only the lobby owner may send it.
type StartGame struct{}

func (StartGame) Type() MessageType { return TypeStartGame }

// Lobby → client messages

// LobbyHello answers UserHello with the player's identity and, for a
// newly issued identity, the plaintext credential. The client must hold
// both and replay them on every reconnect.
type LobbyHello struct {
	PlayerID   model.PlayerID `json:"player_id"`
	Credential string         `json:"credential,omitempty"`
}

func (LobbyHello) Type() MessageType { return TypeLobbyHello }

// LobbyCreated confirms lobby creation
type LobbyCreated struct {
	Lobby model.LobbyCode `json:"lobby"`
}

func (LobbyCreated) Type() MessageType { return TypeLobbyCreated }

// AvailableLobbies lists all non-empty lobbies
type AvailableLobbies struct {
	Lobbies []model.LobbyCode `json:"lobbies"`
}

func (AvailableLobbies) Type() MessageType { return TypeAvailableLobbies }

// LobbyJoined confirms a join and carries the current membership
type LobbyJoined struct {
	Lobby   model.LobbyCode  `json:"lobby"`
	Members []model.PlayerID `json:"members"`
}

func (LobbyJoined) Type() MessageType { return TypeLobbyJoined }

// JoinFailed reports a recoverable join rejection, such as an unknown
// lobby code. The session stays open.
type JoinFailed struct {
	Lobby  model.LobbyCode `json:"lobby"`
	Reason string          `json:"reason"`
}

func (JoinFailed) Type() MessageType { return TypeJoinFailed }

// PlayerJoined notifies existing members of a new member
type PlayerJoined struct {
	Lobby  model.LobbyCode `json:"lobby"`
	Player model.PlayerID  `json:"player"`
}

func (PlayerJoined) Type() MessageType { return TypePlayerJoined }

// PlayerLeft notifies remaining members of a departure
type PlayerLeft struct {
	Lobby  model.LobbyCode `json:"lobby"`
	Player model.PlayerID  `json:"player"`
}

func (PlayerLeft) Type() MessageType { return TypePlayerLeft }

// GameStarted tells lobby members where their game server is listening
type GameStarted struct {
	Address string `json:"address"`
}

func (GameStarted) Type() MessageType { return TypeGameStarted }

// GameStartFailed reports a retryable start failure, such as no game
// server capacity. The lobby stays joinable.
type GameStartFailed struct {
	Reason string `json:"reason"`
}

func (GameStartFailed) Type() MessageType { return TypeGameStartFailed }

// Game server ↔ lobby messages

// GameServerHello opens a broker connection
type GameServerHello struct{}

func (GameServerHello) Type() MessageType { return TypeGameServerHello }

// LobbyServerHello acknowledges a broker connection
type LobbyServerHello struct{}

func (LobbyServerHello) Type() MessageType { return TypeLobbyServerHello }

// Available announces an idle game server and where clients may reach it
type Available struct {
	Address string `json:"address"`
}

func (Available) Type() MessageType { return TypeAvailable }

// Busy announces the game server is occupied
type Busy struct{}

func (Busy) Type() MessageType { return TypeBusy }

// GameCreated confirms the game server accepted an assignment and is
// waiting for the lobby's players
type GameCreated struct {
	Lobby model.LobbyCode `json:"lobby"`
}

func (GameCreated) Type() MessageType { return TypeGameCreated }

// GamePlayer is one roster entry handed to a game server
type GamePlayer struct {
	ID         model.PlayerID `json:"id"`
	Credential string         `json:"credential"`
}

// CreateGame assigns a lobby's play-through to a game server
type CreateGame struct {
	Lobby   model.LobbyCode  `json:"lobby"`
	Players []GamePlayer     `json:"players"`
	Courses []model.CourseID `json:"courses"`
}

func (CreateGame) Type() MessageType { return TypeCreateGame }

// Client ↔ game server messages

// RequestAuthentication asks a freshly connected client to prove its identity
type RequestAuthentication struct{}

func (RequestAuthentication) Type() MessageType { return TypeRequestAuthentication }

// AuthResult answers AuthenticatePlayer. On rejection the connection is
// closed after this message.
type AuthResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func (AuthResult) Type() MessageType { return TypeAuthResult }

// CourseStarted announces the course now being played
type CourseStarted struct {
	Course model.CourseID `json:"course"`
	Name   string         `json:"name"`
	Holes  int            `json:"holes"`
}

func (CourseStarted) Type() MessageType { return TypeCourseStarted }

// HoleStarted announces the hole now being played
type HoleStarted struct {
	Course model.CourseID `json:"course"`
	Hole   int            `json:"hole"`
	Start  model.Vec3     `json:"start"`
}

func (HoleStarted) Type() MessageType { return TypeHoleStarted }

// BallState is one ball's pose in a state snapshot
type BallState struct {
	Player   model.PlayerID `json:"player"`
	Position model.Vec3     `json:"position"`
	Velocity model.Vec3     `json:"velocity"`
}

// GameState is the authoritative per-tick snapshot. Latest-wins: clients
// should render the newest snapshot and discard stale ones.
type GameState struct {
	Tick  uint64      `json:"tick"`
	Balls []BallState `json:"balls"`
}

func (GameState) Type() MessageType { return TypeGameState }

// InventoryUpdate reports the receiving player's held power-ups
type InventoryUpdate struct {
	PowerUps []model.PowerUpKind `json:"power_ups"`
}

func (InventoryUpdate) Type() MessageType { return TypeInventoryUpdate }

// PlayerHoledOut announces a player finishing the current hole
type PlayerHoledOut struct {
	Player  model.PlayerID `json:"player"`
	Strokes int            `json:"strokes"`
}

func (PlayerHoledOut) Type() MessageType { return TypePlayerHoledOut }

// FinalScore is one player's result in a completed game
type FinalScore struct {
	Player model.PlayerID `json:"player"`
	Total  int            `json:"total"`
}

// GameCompleted carries the final scores. The server closes every client
// connection after sending it.
type GameCompleted struct {
	Scores []FinalScore `json:"scores"`
}

func (GameCompleted) Type() MessageType { return TypeGameCompleted }

// AuthenticatePlayer replays the identity and credential issued by the lobby
type AuthenticatePlayer struct {
	ID         model.PlayerID `json:"id"`
	Credential string         `json:"credential"`
}

func (AuthenticatePlayer) Type() MessageType { return TypeAuthenticatePlayer }

// PlayerInput carries one raw player command. Movement may be sent
// latest-wins; power-up activation must be sent on the ordered channel.
type PlayerInput struct {
	Kind      model.CommandKind `json:"kind"`
	Direction model.Vec2        `json:"direction,omitempty"`
	Point     model.Vec3        `json:"point,omitempty"`
}

func (PlayerInput) Type() MessageType { return TypePlayerInput }

// Command converts the wire input to the model command type
func (p PlayerInput) Command() model.PlayerCommand {
	return model.PlayerCommand{
		Kind:      p.Kind,
		Direction: p.Direction,
		Point:     p.Point,
	}
}
