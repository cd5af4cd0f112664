package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(player.ID), data, s.cfg.PlayerTTL).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.Del(ctx, credentialKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.CredentialRecord) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialKey(cred.PlayerID), data, s.cfg.PlayerTTL).Err()
}

func (s *Storage) GetCredential(ctx context.Context, playerID model.PlayerID) (*model.CredentialRecord, error) {
	data, err := s.client.Get(ctx, credentialKey(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}

	var cred model.CredentialRecord
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, lobbyKey(lobby.Code), data, s.cfg.LobbyTTL)
	pipe.SAdd(ctx, lobbyIndexKey(), string(lobby.Code))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	data, err := s.client.Get(ctx, lobbyKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrLobbyNotFound
	}
	if err != nil {
		return nil, err
	}

	var lobby model.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (s *Storage) DeleteLobby(ctx context.Context, code model.LobbyCode) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, lobbyKey(code))
	pipe.SRem(ctx, lobbyIndexKey(), string(code))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLobbies(ctx context.Context) ([]model.LobbyCode, error) {
	members, err := s.client.SMembers(ctx, lobbyIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	// Lobby keys expire independently of the index; drop stale entries
	codes := make([]model.LobbyCode, 0, len(members))
	for _, m := range members {
		code := model.LobbyCode(m)
		exists, err := s.LobbyExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			codes = append(codes, code)
		} else {
			s.client.SRem(ctx, lobbyIndexKey(), m)
		}
	}
	return codes, nil
}

func (s *Storage) LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error) {
	n, err := s.client.Exists(ctx, lobbyKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Membership index operations

func (s *Storage) SetPlayerLobby(ctx context.Context, playerID model.PlayerID, code model.LobbyCode) error {
	return s.client.Set(ctx, playerLobbyKey(playerID), string(code), s.cfg.LobbyTTL).Err()
}

func (s *Storage) GetPlayerLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyCode, error) {
	code, err := s.client.Get(ctx, playerLobbyKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrNotInLobby
	}
	if err != nil {
		return "", err
	}
	return model.LobbyCode(code), nil
}

func (s *Storage) ClearPlayerLobby(ctx context.Context, playerID model.PlayerID) error {
	return s.client.Del(ctx, playerLobbyKey(playerID)).Err()
}
