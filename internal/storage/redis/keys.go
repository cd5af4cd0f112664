package redis

import (
	"fmt"

	"github.com/mcoot/fairway/internal/model"
)

// Key prefix for all lobby-service data
const keyPrefix = "fairway"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// credentialKey returns the Redis key for a CredentialRecord
func credentialKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:credential:%s", keyPrefix, playerID)
}

// lobbyKey returns the Redis key for a Lobby
func lobbyKey(code model.LobbyCode) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, code)
}

// lobbyIndexKey returns the Redis key for the SET of all lobby codes
func lobbyIndexKey() string {
	return fmt.Sprintf("%s:idx:lobbies", keyPrefix)
}

// playerLobbyKey returns the Redis key for the player -> lobby index
func playerLobbyKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_lobby:%s", keyPrefix, playerID)
}
