package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fairway/internal/dependencies/mocks"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage/memory"
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
	s.controller = NewController(s.storage, s.clock, s.random)
	s.ctx = context.Background()
}

// IssueIdentity tests

func (s *ControllerSuite) TestIssueIdentitySucceeds() {
	s.random.QueueString("secret-1")

	identity, err := s.controller.IssueIdentity(s.ctx)
	s.Require().NoError(err)

	s.NotEmpty(identity.Player.ID)
	s.Equal("secret-1", identity.Secret)
	s.Equal(s.clock.Now(), identity.Player.CreatedAt)
}

func (s *ControllerSuite) TestIssueIdentityPersistsPlayer() {
	s.random.QueueString("secret-1")

	identity, _ := s.controller.IssueIdentity(s.ctx)

	player, err := s.controller.GetPlayer(s.ctx, identity.Player.ID)
	s.Require().NoError(err)
	s.Equal(identity.Player.ID, player.ID)
}

func (s *ControllerSuite) TestIssueIdentityStoresHashNotSecret() {
	s.random.QueueString("secret-1")

	identity, _ := s.controller.IssueIdentity(s.ctx)

	record, err := s.storage.GetCredential(s.ctx, identity.Player.ID)
	s.Require().NoError(err)
	s.NotEqual("secret-1", record.SecretHash)
	s.NotEmpty(record.SecretHash)
}

func (s *ControllerSuite) TestIssueIdentityGeneratesDistinctIDs() {
	s.random.QueueString("secret-1", "secret-2")

	first, _ := s.controller.IssueIdentity(s.ctx)
	second, _ := s.controller.IssueIdentity(s.ctx)

	s.NotEqual(first.Player.ID, second.Player.ID)
}

// Verify tests

func (s *ControllerSuite) TestVerifySucceedsWithIssuedSecret() {
	s.random.QueueString("secret-1")
	identity, _ := s.controller.IssueIdentity(s.ctx)

	err := s.controller.Verify(s.ctx, identity.Player.ID, "secret-1")
	s.NoError(err)
}

func (s *ControllerSuite) TestVerifyRejectsWrongSecret() {
	s.random.QueueString("secret-1")
	identity, _ := s.controller.IssueIdentity(s.ctx)

	err := s.controller.Verify(s.ctx, identity.Player.ID, "wrong")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestVerifyUnknownPlayer() {
	err := s.controller.Verify(s.ctx, "nonexistent", "secret-1")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}
