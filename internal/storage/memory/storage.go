package memory

import (
	"context"
	"sync"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[model.PlayerID]*model.Player
	credentials map[model.PlayerID]*model.CredentialRecord
	lobbies     map[model.LobbyCode]*model.Lobby
	playerLobby map[model.PlayerID]model.LobbyCode
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:     make(map[model.PlayerID]*model.Player),
		credentials: make(map[model.PlayerID]*model.CredentialRecord),
		lobbies:     make(map[model.LobbyCode]*model.Lobby),
		playerLobby: make(map[model.PlayerID]model.LobbyCode),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	delete(s.credentials, id)
	return nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.PlayerID] = cred
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, playerID model.PlayerID) (*model.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[playerID]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	return cred, nil
}

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.Code] = lobby
	return nil
}

func (s *Storage) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby, nil
}

func (s *Storage) DeleteLobby(ctx context.Context, code model.LobbyCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
	return nil
}

func (s *Storage) ListLobbies(ctx context.Context) ([]model.LobbyCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]model.LobbyCode, 0, len(s.lobbies))
	for code := range s.lobbies {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Storage) LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lobbies[code]
	return ok, nil
}

// Membership index operations

func (s *Storage) SetPlayerLobby(ctx context.Context, playerID model.PlayerID, code model.LobbyCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerLobby[playerID] = code
	return nil
}

func (s *Storage) GetPlayerLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.playerLobby[playerID]
	if !ok {
		return "", model.ErrNotInLobby
	}
	return code, nil
}

func (s *Storage) ClearPlayerLobby(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playerLobby, playerID)
	return nil
}
