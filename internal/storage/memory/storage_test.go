package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fairway/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "player-1", CreatedAt: time.Now()}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayerRemovesCredential() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "player-1"})
	_ = s.storage.SaveCredential(s.ctx, &model.CredentialRecord{PlayerID: "player-1", SecretHash: "h"})

	err := s.storage.DeletePlayer(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.storage.GetCredential(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

// Credential tests

func (s *StorageSuite) TestSaveAndGetCredential() {
	cred := &model.CredentialRecord{PlayerID: "player-1", SecretHash: "hash123"}

	err := s.storage.SaveCredential(s.ctx, cred)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetCredential(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("hash123", retrieved.SecretHash)
}

// Lobby tests

func (s *StorageSuite) TestSaveAndListLobbies() {
	_ = s.storage.SaveLobby(s.ctx, &model.Lobby{Code: "AAA111"})
	_ = s.storage.SaveLobby(s.ctx, &model.Lobby{Code: "BBB222"})

	codes, err := s.storage.ListLobbies(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.LobbyCode{"AAA111", "BBB222"}, codes)
}

func (s *StorageSuite) TestDeleteLobby() {
	_ = s.storage.SaveLobby(s.ctx, &model.Lobby{Code: "AAA111"})

	err := s.storage.DeleteLobby(s.ctx, "AAA111")
	s.Require().NoError(err)

	_, err = s.storage.GetLobby(s.ctx, "AAA111")
	s.ErrorIs(err, model.ErrLobbyNotFound)

	exists, err := s.storage.LobbyExists(s.ctx, "AAA111")
	s.Require().NoError(err)
	s.False(exists)
}

// Membership index tests

func (s *StorageSuite) TestPlayerLobbyIndex() {
	err := s.storage.SetPlayerLobby(s.ctx, "player-1", "AAA111")
	s.Require().NoError(err)

	code, err := s.storage.GetPlayerLobby(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("AAA111"), code)

	err = s.storage.ClearPlayerLobby(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayerLobby(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrNotInLobby)
}
