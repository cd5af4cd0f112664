package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fairway/internal/dependencies/mocks"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage/memory"
	"github.com/mcoot/fairway/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// CreateLobby tests

func (s *ControllerSuite) TestCreateLobbySucceeds() {
	s.random.QueueString("ABC123")

	lobby, err := s.controller.CreateLobby(s.ctx, "owner-1")
	s.Require().NoError(err)

	s.Equal(model.LobbyCode("ABC123"), lobby.Code)
	s.Equal(model.LobbyStateWaiting, lobby.State)
	s.Equal(model.PlayerID("owner-1"), lobby.Owner)
	s.Len(lobby.Members, 1)
}

func (s *ControllerSuite) TestCreateLobbyIsPersisted() {
	s.random.QueueString("ABC123")

	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	retrieved, err := s.controller.GetLobby(s.ctx, lobby.Code)
	s.Require().NoError(err)
	s.Equal(lobby.Code, retrieved.Code)
}

func (s *ControllerSuite) TestCreateLobbyRetriesOnCodeCollision() {
	s.random.QueueString("ABC123")
	_, _ = s.controller.CreateLobby(s.ctx, "owner-1")

	s.random.QueueString("ABC123", "DEF456")
	lobby, err := s.controller.CreateLobby(s.ctx, "owner-2")
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("DEF456"), lobby.Code)
}

func (s *ControllerSuite) TestCreateLobbyWhileInLobbyFails() {
	s.random.QueueString("ABC123", "DEF456")
	_, _ = s.controller.CreateLobby(s.ctx, "owner-1")

	_, err := s.controller.CreateLobby(s.ctx, "owner-1")
	s.ErrorIs(err, model.ErrAlreadyInLobby)
}

// JoinLobby tests

func (s *ControllerSuite) TestJoinLobbySucceeds() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	joined, err := s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	s.Require().NoError(err)
	s.Len(joined.Members, 2)
	s.NotNil(joined.GetMember("player-1"))
}

func (s *ControllerSuite) TestJoinUnknownLobbyFails() {
	_, err := s.controller.JoinLobby(s.ctx, "NOPE99", "player-1")
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *ControllerSuite) TestJoinLobbyTwiceFails() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")

	_, err := s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	s.ErrorIs(err, model.ErrAlreadyInLobby)
}

func (s *ControllerSuite) TestJoinInGameLobbyFails() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_ = s.controller.MarkInGame(s.ctx, lobby.Code)

	_, err := s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	s.ErrorIs(err, model.ErrGameInProgress)
}

// LeaveLobby tests

func (s *ControllerSuite) TestLeaveLobbyRemovesMember() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")

	updated, err := s.controller.LeaveLobby(s.ctx, lobby.Code, "player-1")
	s.Require().NoError(err)
	s.Len(updated.Members, 1)
	s.Nil(updated.GetMember("player-1"))
}

func (s *ControllerSuite) TestLastMemberLeavingDestroysLobby() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	updated, err := s.controller.LeaveLobby(s.ctx, lobby.Code, "owner-1")
	s.Require().NoError(err)
	s.Nil(updated)

	_, err = s.controller.GetLobby(s.ctx, lobby.Code)
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *ControllerSuite) TestOwnerLeavingTransfersOwnership() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")

	updated, err := s.controller.LeaveLobby(s.ctx, lobby.Code, "owner-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), updated.Owner)
}

func (s *ControllerSuite) TestLeaveLobbyNotMemberFails() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	_, err := s.controller.LeaveLobby(s.ctx, lobby.Code, "stranger")
	s.ErrorIs(err, model.ErrNotInLobby)
}

func (s *ControllerSuite) TestLeaveAllowsRejoining() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	_, _ = s.controller.LeaveLobby(s.ctx, lobby.Code, "player-1")

	_, err := s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	s.NoError(err)
}

// Disconnect tests

func (s *ControllerSuite) TestDisconnectLeavesLobby() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")

	updated, err := s.controller.HandleDisconnect(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Len(updated.Members, 1)
}

func (s *ControllerSuite) TestDisconnectWithoutLobbyIsNoOp() {
	lobby, err := s.controller.HandleDisconnect(s.ctx, "player-1")
	s.NoError(err)
	s.Nil(lobby)
}

// ListLobbies tests

func (s *ControllerSuite) TestListLobbies() {
	s.random.QueueString("ABC123", "DEF456")
	_, _ = s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.CreateLobby(s.ctx, "owner-2")

	lobbies, err := s.controller.ListLobbies(s.ctx)
	s.Require().NoError(err)
	s.Len(lobbies, 2)
}

// State transition tests

func (s *ControllerSuite) TestMarkInGameTwiceFails() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	s.Require().NoError(s.controller.MarkInGame(s.ctx, lobby.Code))
	s.ErrorIs(s.controller.MarkInGame(s.ctx, lobby.Code), model.ErrGameInProgress)
}

func (s *ControllerSuite) TestMarkGameFailedReturnsToWaiting() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_ = s.controller.MarkInGame(s.ctx, lobby.Code)

	s.Require().NoError(s.controller.MarkGameFailed(s.ctx, lobby.Code))

	retrieved, _ := s.controller.GetLobby(s.ctx, lobby.Code)
	s.Equal(model.LobbyStateWaiting, retrieved.State)

	// Joinable again after the failed handoff
	_, err := s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")
	s.NoError(err)
}

// RequireOwner tests

func (s *ControllerSuite) TestRequireOwner() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")
	_, _ = s.controller.JoinLobby(s.ctx, lobby.Code, "player-1")

	_, err := s.controller.RequireOwner(s.ctx, lobby.Code, "owner-1")
	s.NoError(err)

	_, err = s.controller.RequireOwner(s.ctx, lobby.Code, "player-1")
	s.ErrorIs(err, model.ErrNotOwner)
}

// GetPlayerLobby tests

func (s *ControllerSuite) TestGetPlayerLobby() {
	s.random.QueueString("ABC123")
	lobby, _ := s.controller.CreateLobby(s.ctx, "owner-1")

	retrieved, err := s.controller.GetPlayerLobby(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(lobby.Code, retrieved.Code)

	_, err = s.controller.GetPlayerLobby(s.ctx, "stranger")
	s.ErrorIs(err, model.ErrNotInLobby)
}
