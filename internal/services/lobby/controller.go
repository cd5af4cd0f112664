package lobby

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/dependencies/random"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage"
)

const (
	// LobbyCodeLength is the length of generated lobby codes
	LobbyCodeLength = 6
	// LobbyCodeAlphabet is the characters used in lobby codes (avoid confusing chars)
	LobbyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Controller manages the lobby directory: creation, membership, and the
// waiting/in-game state transitions around game handoff
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateLobby creates a new lobby owned by the given player.
// A player may belong to at most one lobby at a time.
func (c *Controller) CreateLobby(ctx context.Context, owner model.PlayerID) (*model.Lobby, error) {
	if err := c.requireNotInLobby(ctx, owner); err != nil {
		return nil, err
	}

	now := c.clock.Now()

	// Generate unique lobby code
	var code model.LobbyCode
	for {
		code = model.LobbyCode(c.random.String(LobbyCodeLength, LobbyCodeAlphabet))
		exists, err := c.storage.LobbyExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	lobby := &model.Lobby{
		Code:  code,
		State: model.LobbyStateWaiting,
		Owner: owner,
		Members: []model.LobbyMember{
			{
				PlayerID: owner,
				JoinedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	if err := c.storage.SetPlayerLobby(ctx, owner, code); err != nil {
		return nil, err
	}

	c.logger.Info("lobby created", "lobby", code, "owner", owner)

	return lobby, nil
}

// GetLobby retrieves a lobby by code
func (c *Controller) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	return c.storage.GetLobby(ctx, code)
}

// ListLobbies returns all lobbies currently in the directory
func (c *Controller) ListLobbies(ctx context.Context) ([]*model.Lobby, error) {
	codes, err := c.storage.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}

	lobbies := make([]*model.Lobby, 0, len(codes))
	for _, code := range codes {
		lobby, err := c.storage.GetLobby(ctx, code)
		if errors.Is(err, model.ErrLobbyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}
	return lobbies, nil
}

// GetPlayerLobby returns the lobby the given player currently belongs to,
// or ErrNotInLobby
func (c *Controller) GetPlayerLobby(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error) {
	code, err := c.storage.GetPlayerLobby(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return c.storage.GetLobby(ctx, code)
}

// JoinLobby adds a player to a lobby. Joining an unknown code returns
// ErrLobbyNotFound, which the caller should treat as a recoverable
// rejection rather than a fatal session error.
func (c *Controller) JoinLobby(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error) {
	if err := c.requireNotInLobby(ctx, playerID); err != nil {
		return nil, err
	}

	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	if lobby.State == model.LobbyStateInGame {
		return nil, model.ErrGameInProgress
	}

	lobby.Members = append(lobby.Members, model.LobbyMember{
		PlayerID: playerID,
		JoinedAt: c.clock.Now(),
	})
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	if err := c.storage.SetPlayerLobby(ctx, playerID, code); err != nil {
		return nil, err
	}

	return lobby, nil
}

// LeaveLobby removes a player from a lobby. The last member leaving
// destroys the lobby; returns nil lobby in that case. If the owner leaves
// a non-empty lobby, ownership passes to the longest-standing member.
func (c *Controller) LeaveLobby(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error) {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}

	if lobby.GetMember(playerID) == nil {
		return nil, model.ErrNotInLobby
	}

	for i, m := range lobby.Members {
		if m.PlayerID == playerID {
			lobby.Members = append(lobby.Members[:i], lobby.Members[i+1:]...)
			break
		}
	}

	if err := c.storage.ClearPlayerLobby(ctx, playerID); err != nil {
		return nil, err
	}

	if len(lobby.Members) == 0 {
		c.logger.Info("lobby empty, destroying", "lobby", code)
		if err := c.storage.DeleteLobby(ctx, code); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if lobby.Owner == playerID {
		lobby.Owner = lobby.Members[0].PlayerID
	}

	lobby.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	return lobby, nil
}

// HandleDisconnect treats a dropped connection as an implicit leave.
// A player not in any lobby is a no-op.
func (c *Controller) HandleDisconnect(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error) {
	code, err := c.storage.GetPlayerLobby(ctx, playerID)
	if errors.Is(err, model.ErrNotInLobby) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.LeaveLobby(ctx, code, playerID)
}

// MarkInGame transitions a lobby to the in-game state once a game server
// has accepted it. Only the owner may have requested the start; that check
// happens before broker assignment, not here.
func (c *Controller) MarkInGame(ctx context.Context, code model.LobbyCode) error {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return err
	}

	if lobby.State == model.LobbyStateInGame {
		return model.ErrGameInProgress
	}

	lobby.State = model.LobbyStateInGame
	lobby.UpdatedAt = c.clock.Now()
	return c.storage.SaveLobby(ctx, lobby)
}

// MarkGameFailed returns a lobby to the waiting state after a failed
// handoff, so members can try again or new players can join
func (c *Controller) MarkGameFailed(ctx context.Context, code model.LobbyCode) error {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return err
	}

	lobby.State = model.LobbyStateWaiting
	lobby.UpdatedAt = c.clock.Now()
	return c.storage.SaveLobby(ctx, lobby)
}

// RequireOwner verifies that the given player owns the lobby
func (c *Controller) RequireOwner(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error) {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}
	if lobby.Owner != playerID {
		return nil, model.ErrNotOwner
	}
	return lobby, nil
}

func (c *Controller) requireNotInLobby(ctx context.Context, playerID model.PlayerID) error {
	_, err := c.storage.GetPlayerLobby(ctx, playerID)
	if err == nil {
		return model.ErrAlreadyInLobby
	}
	if !errors.Is(err, model.ErrNotInLobby) {
		return err
	}
	return nil
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateLobby(ctx context.Context, owner model.PlayerID) (*model.Lobby, error)
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	ListLobbies(ctx context.Context) ([]*model.Lobby, error)
	GetPlayerLobby(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error)
	JoinLobby(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error)
	LeaveLobby(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error)
	HandleDisconnect(ctx context.Context, playerID model.PlayerID) (*model.Lobby, error)
	MarkInGame(ctx context.Context, code model.LobbyCode) error
	MarkGameFailed(ctx context.Context, code model.LobbyCode) error
	RequireOwner(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) (*model.Lobby, error)
}

var _ ControllerInterface = (*Controller)(nil)
