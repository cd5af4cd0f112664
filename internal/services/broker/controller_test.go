package broker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type ControllerSuite struct {
	suite.Suite
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.controller = NewController(testutil.NopLogger())
}

func (s *ControllerSuite) TestAssignWithNoServers() {
	_, err := s.controller.Assign("ABC123")
	s.ErrorIs(err, model.ErrNoCapacity)
}

func (s *ControllerSuite) TestUnknownServerIsNotAssignable() {
	s.controller.Register("server-1")

	_, err := s.controller.Assign("ABC123")
	s.ErrorIs(err, model.ErrNoCapacity)
}

func (s *ControllerSuite) TestAssignPicksAvailableServer() {
	s.controller.Register("server-1")
	s.Require().NoError(s.controller.SetAvailable("server-1", "golf1.example.com:4000"))

	reg, err := s.controller.Assign("ABC123")
	s.Require().NoError(err)
	s.Equal(ServerID("server-1"), reg.ID)
	s.Equal("golf1.example.com:4000", reg.Address)
	s.Equal(model.LobbyCode("ABC123"), reg.PendingLobby)
}

func (s *ControllerSuite) TestAssignedServerIsNotReassigned() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "golf1.example.com:4000")

	_, err := s.controller.Assign("ABC123")
	s.Require().NoError(err)

	_, err = s.controller.Assign("DEF456")
	s.ErrorIs(err, model.ErrNoCapacity)
}

func (s *ControllerSuite) TestAssignSkipsBusyServers() {
	s.controller.Register("server-1")
	s.controller.Register("server-2")
	_ = s.controller.SetAvailable("server-1", "golf1.example.com:4000")
	_ = s.controller.SetAvailable("server-2", "golf2.example.com:4000")
	_ = s.controller.SetBusy("server-1")

	reg, err := s.controller.Assign("ABC123")
	s.Require().NoError(err)
	s.Equal(ServerID("server-2"), reg.ID)
}

func (s *ControllerSuite) TestConcurrentAssignsPickDistinctServers() {
	const servers = 4
	const lobbies = 16

	s.controller.Register("server-1")
	s.controller.Register("server-2")
	s.controller.Register("server-3")
	s.controller.Register("server-4")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_ = s.controller.SetAvailable("server-2", "a:2")
	_ = s.controller.SetAvailable("server-3", "a:3")
	_ = s.controller.SetAvailable("server-4", "a:4")

	var mu sync.Mutex
	assigned := make(map[ServerID]int)
	failures := 0

	var wg sync.WaitGroup
	for i := 0; i < lobbies; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := s.controller.Assign("LOBBY1")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			assigned[reg.ID]++
		}()
	}
	wg.Wait()

	s.Equal(lobbies-servers, failures)
	s.Len(assigned, servers)
	for id, count := range assigned {
		s.Equalf(1, count, "server %s assigned more than once", id)
	}
}

func (s *ControllerSuite) TestConfirmAssignmentClearsPending() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_, _ = s.controller.Assign("ABC123")

	err := s.controller.ConfirmAssignment("server-1", "ABC123")
	s.Require().NoError(err)

	// A disconnect after confirmation reports no pending lobby
	code, pending := s.controller.Unregister("server-1")
	s.False(pending)
	s.Empty(code)
}

func (s *ControllerSuite) TestConfirmAssignmentWrongLobby() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_, _ = s.controller.Assign("ABC123")

	err := s.controller.ConfirmAssignment("server-1", "DEF456")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestUnregisterMidAssignmentReportsPendingLobby() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_, _ = s.controller.Assign("ABC123")

	code, pending := s.controller.Unregister("server-1")
	s.True(pending)
	s.Equal(model.LobbyCode("ABC123"), code)
}

func (s *ControllerSuite) TestReleaseAssignmentRequiresReannounce() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_, _ = s.controller.Assign("ABC123")

	s.controller.ReleaseAssignment("server-1")

	// Not assignable until it announces availability again
	_, err := s.controller.Assign("DEF456")
	s.ErrorIs(err, model.ErrNoCapacity)

	_ = s.controller.SetAvailable("server-1", "a:1")
	_, err = s.controller.Assign("DEF456")
	s.NoError(err)
}

func (s *ControllerSuite) TestServerBecomesAvailableAgainAfterGame() {
	s.controller.Register("server-1")
	_ = s.controller.SetAvailable("server-1", "a:1")
	_, _ = s.controller.Assign("ABC123")
	_ = s.controller.ConfirmAssignment("server-1", "ABC123")

	// Game finished; server re-announces
	_ = s.controller.SetAvailable("server-1", "a:1")

	reg, err := s.controller.Assign("DEF456")
	s.Require().NoError(err)
	s.Equal(ServerID("server-1"), reg.ID)
}

func (s *ControllerSuite) TestAvailableCount() {
	s.controller.Register("server-1")
	s.controller.Register("server-2")
	_ = s.controller.SetAvailable("server-1", "a:1")

	s.Equal(1, s.controller.AvailableCount())

	_, _ = s.controller.Assign("ABC123")
	s.Equal(0, s.controller.AvailableCount())
}
