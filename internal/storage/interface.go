package storage

import (
	"context"

	"github.com/mcoot/fairway/internal/model"
)

// Storage defines the interface for data persistence on the lobby side.
// Game servers keep all play-through state in memory; only identities,
// credentials, and lobby membership persist here.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Credential operations
	SaveCredential(ctx context.Context, cred *model.CredentialRecord) error
	GetCredential(ctx context.Context, playerID model.PlayerID) (*model.CredentialRecord, error)

	// Lobby operations
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, code model.LobbyCode) error
	ListLobbies(ctx context.Context) ([]model.LobbyCode, error)
	LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error)

	// Membership index: which lobby a player currently belongs to.
	// Backs the "player belongs to at most one lobby" invariant.
	SetPlayerLobby(ctx context.Context, playerID model.PlayerID, code model.LobbyCode) error
	GetPlayerLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyCode, error)
	ClearPlayerLobby(ctx context.Context, playerID model.PlayerID) error

	// Close releases any backing connections
	Close() error
}
