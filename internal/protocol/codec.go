package protocol

import (
	"encoding/json"
	"fmt"
)

// envelope is the on-wire framing for every message
type envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode serializes a message into its wire envelope
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", msg.Type(), err)
	}
	return json.Marshal(envelope{Type: msg.Type(), Data: data})
}

// decoder instantiates the concrete message for one type
type decoder func() Message

// Fixed decode tables per channel direction. A message type absent from
// the receiving direction's table is a protocol decode failure, which is
// fatal for the connection.
var (
	userClientTable = map[MessageType]decoder{
		TypeUserHello:   func() Message { return &UserHello{} },
		TypeCreateLobby: func() Message { return &CreateLobby{} },
		TypeListLobbies: func() Message { return &ListLobbies{} },
		TypeJoinLobby:   func() Message { return &JoinLobby{} },
		TypeLeaveLobby:  func() Message { return &LeaveLobby{} },
		TypeStartGame:   func() Message { return &StartGame{} },
	}

	userServerTable = map[MessageType]decoder{
		TypeLobbyHello:       func() Message { return &LobbyHello{} },
		TypeLobbyCreated:     func() Message { return &LobbyCreated{} },
		TypeAvailableLobbies: func() Message { return &AvailableLobbies{} },
		TypeLobbyJoined:      func() Message { return &LobbyJoined{} },
		TypeJoinFailed:       func() Message { return &JoinFailed{} },
		TypePlayerJoined:     func() Message { return &PlayerJoined{} },
		TypePlayerLeft:       func() Message { return &PlayerLeft{} },
		TypeGameStarted:      func() Message { return &GameStarted{} },
		TypeGameStartFailed:  func() Message { return &GameStartFailed{} },
	}

	gameServerToLobbyTable = map[MessageType]decoder{
		TypeGameServerHello: func() Message { return &GameServerHello{} },
		TypeAvailable:       func() Message { return &Available{} },
		TypeBusy:            func() Message { return &Busy{} },
		TypeGameCreated:     func() Message { return &GameCreated{} },
	}

	lobbyToGameServerTable = map[MessageType]decoder{
		TypeLobbyServerHello: func() Message { return &LobbyServerHello{} },
		TypeCreateGame:       func() Message { return &CreateGame{} },
	}

	gameClientTable = map[MessageType]decoder{
		TypeAuthenticatePlayer: func() Message { return &AuthenticatePlayer{} },
		TypePlayerInput:        func() Message { return &PlayerInput{} },
	}

	gameServerToClientTable = map[MessageType]decoder{
		TypeRequestAuthentication: func() Message { return &RequestAuthentication{} },
		TypeAuthResult:            func() Message { return &AuthResult{} },
		TypeCourseStarted:         func() Message { return &CourseStarted{} },
		TypeHoleStarted:           func() Message { return &HoleStarted{} },
		TypeGameState:             func() Message { return &GameState{} },
		TypeInventoryUpdate:       func() Message { return &InventoryUpdate{} },
		TypePlayerHoledOut:        func() Message { return &PlayerHoledOut{} },
		TypeGameCompleted:         func() Message { return &GameCompleted{} },
	}
)

func decode(raw []byte, table map[MessageType]decoder) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	newMsg, ok := table[env.Type]
	if !ok {
		return nil, fmt.Errorf("unexpected message type %q", env.Type)
	}

	msg := newMsg()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, msg); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}
	return msg, nil
}

// DecodeUserClient decodes a message sent by a client to the lobby
func DecodeUserClient(raw []byte) (Message, error) {
	return decode(raw, userClientTable)
}

// DecodeUserServer decodes a message sent by the lobby to a client
func DecodeUserServer(raw []byte) (Message, error) {
	return decode(raw, userServerTable)
}

// DecodeGameServerToLobby decodes a message sent by a game server to the lobby
func DecodeGameServerToLobby(raw []byte) (Message, error) {
	return decode(raw, gameServerToLobbyTable)
}

// DecodeLobbyToGameServer decodes a message sent by the lobby to a game server
func DecodeLobbyToGameServer(raw []byte) (Message, error) {
	return decode(raw, lobbyToGameServerTable)
}

// DecodeGameClient decodes a message sent by a client to a game server
func DecodeGameClient(raw []byte) (Message, error) {
	return decode(raw, gameClientTable)
}

// DecodeGameServerToClient decodes a message sent by a game server to a client
func DecodeGameServerToClient(raw []byte) (Message, error) {
	return decode(raw, gameServerToClientTable)
}
