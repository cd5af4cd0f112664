package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrUnauthorized       = errors.New("credential does not match")

	// Lobby errors
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrAlreadyInLobby = errors.New("player is already in a lobby")
	ErrNotInLobby     = errors.New("player is not in a lobby")
	ErrNotOwner       = errors.New("player is not the lobby owner")
	ErrGameInProgress = errors.New("game is in progress")

	// Broker errors
	ErrNoCapacity     = errors.New("no game server available")
	ErrServerNotFound = errors.New("game server not registered")
	ErrServerBusy     = errors.New("game server is busy")

	// Game errors
	ErrGameNotFound  = errors.New("game not found")
	ErrGameCompleted = errors.New("game is already complete")
	ErrUnknownCourse = errors.New("unknown course")
	ErrNoActiveHole  = errors.New("no active hole")
	ErrNotInGame     = errors.New("player is not in this game")

	// Inventory errors
	ErrInventoryFull  = errors.New("power-up inventory is full")
	ErrPowerUpNotHeld = errors.New("power-up not held")
)
