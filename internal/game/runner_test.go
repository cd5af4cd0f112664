package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fairway/internal/dependencies/mocks"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/physics"
	"github.com/mcoot/fairway/internal/physics/physicstest"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/services/input"
	"github.com/mcoot/fairway/internal/services/progression"
	"github.com/mcoot/fairway/internal/testutil"
)

type recordingSender struct {
	broadcasts []protocol.Message
	sent       map[model.PlayerID][]protocol.Message
	closed     []string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[model.PlayerID][]protocol.Message)}
}

func (s *recordingSender) SendTo(player model.PlayerID, msg protocol.Message) {
	s.sent[player] = append(s.sent[player], msg)
}

func (s *recordingSender) Broadcast(msg protocol.Message) {
	s.broadcasts = append(s.broadcasts, msg)
}

func (s *recordingSender) CloseAll(reason string) {
	s.closed = append(s.closed, reason)
}

func (s *recordingSender) byType(t protocol.MessageType) []protocol.Message {
	var out []protocol.Message
	for _, msg := range s.broadcasts {
		if msg.Type() == t {
			out = append(out, msg)
		}
	}
	return out
}

type courseSource map[model.CourseID]*model.Course

func (m courseSource) Course(id model.CourseID) (*model.Course, error) {
	c, ok := m[id]
	if !ok {
		return nil, model.ErrUnknownCourse
	}
	return c, nil
}

func runnerCourse(holes int) *model.Course {
	c := &model.Course{ID: "links", Name: "Links"}
	for i := 0; i < holes; i++ {
		c.Holes = append(c.Holes, model.Hole{
			Index: i,
			Bounds: model.Box{
				Min: model.Vec3{X: -10, Y: 0, Z: -10},
				Max: model.Vec3{X: 10, Y: 5, Z: 10},
			},
			Cup: model.SensorRegion{Position: model.Vec3{X: 8}, Radius: 0.2},
		})
	}
	return c
}

type RunnerSuite struct {
	suite.Suite
	physics     *physicstest.Fake
	sender      *recordingSender
	progression *progression.Controller
	runner      *Runner
	finished    []FinishReason
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.physics = physicstest.New()
	s.sender = newRecordingSender()
	s.finished = nil

	logger := testutil.NopLogger()
	inputEngine := input.NewEngine(s.physics, input.DefaultTuning(), logger)
	s.progression = progression.NewController(courseSource{"links": runnerCourse(2)}, logger)
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	s.runner = NewRunner(logger, clk, s.physics, inputEngine, s.progression, s.sender,
		128, func(reason FinishReason) { s.finished = append(s.finished, reason) })
}

const dt = 1.0 / 128.0

func (s *RunnerSuite) startWith(players ...model.PlayerID) {
	err := s.progression.StartGame("game-1", "ABC123", players, model.CourseRoster{"links"})
	s.Require().NoError(err)
	for _, p := range players {
		s.runner.PlayerJoined(p)
	}
	s.runner.step(dt)
}

func (s *RunnerSuite) TestFullRosterJoiningStartsPlay() {
	s.startWith("p1", "p2")

	s.Equal(model.GamePhasePlaying, s.progression.GamePhase())
	s.Len(s.sender.byType(protocol.TypeCourseStarted), 1)
	s.Len(s.sender.byType(protocol.TypeHoleStarted), 1)

	// Balls placed and one state snapshot broadcast
	s.Contains(s.physics.Positions, physics.BodyID("p1"))
	s.Contains(s.physics.Positions, physics.BodyID("p2"))
	s.Len(s.sender.byType(protocol.TypeGameState), 1)
}

func (s *RunnerSuite) TestMoveCommandReachesPhysicsAndScoring() {
	s.startWith("p1", "p2")

	s.runner.EnqueueInput("p1", model.PlayerCommand{
		Kind:      model.CommandMove,
		Direction: model.Vec2{X: 2},
	})
	s.runner.step(dt)

	s.Require().Len(s.physics.Impulses["p1"], 1)
	s.Equal(1, s.progression.Scores()["p1"].Total)
}

func (s *RunnerSuite) TestInvalidCommandLeavesSimulationUntouched() {
	s.startWith("p1", "p2")

	// Two moves in one tick: the second arrives while the ball is moving
	s.runner.EnqueueInput("p1", model.PlayerCommand{Kind: model.CommandMove, Direction: model.Vec2{X: 2}})
	s.runner.EnqueueInput("p1", model.PlayerCommand{Kind: model.CommandMove, Direction: model.Vec2{X: 5}})
	s.runner.step(dt)

	s.Len(s.physics.Impulses["p1"], 1)
	s.Equal(1, s.progression.Scores()["p1"].Total)
}

func (s *RunnerSuite) TestCommandsApplyBeforePhysicsStep() {
	s.startWith("p1", "p2")
	stepsBefore := s.physics.StepCount

	s.runner.EnqueueInput("p1", model.PlayerCommand{Kind: model.CommandMove, Direction: model.Vec2{X: 2}})
	s.physics.QueueEvents(physics.Event{Kind: physics.EventSettled, Body: "p1"})
	s.runner.step(dt)

	// The impulse landed and the same tick's physics step ran after it,
	// whose settle event re-enabled movement
	s.Equal(stepsBefore+1, s.physics.StepCount)
	s.Require().Len(s.physics.Impulses["p1"], 1)

	s.runner.EnqueueInput("p1", model.PlayerCommand{Kind: model.CommandMove, Direction: model.Vec2{X: 1}})
	s.runner.step(dt)
	s.Len(s.physics.Impulses["p1"], 2)
}

func (s *RunnerSuite) TestCupContactAdvancesHole() {
	s.startWith("p1", "p2")

	s.physics.QueueEvents(
		physics.Event{Kind: physics.EventSensorContact, Body: "p1", Sensor: "cup"},
		physics.Event{Kind: physics.EventSensorContact, Body: "p2", Sensor: "cup"},
	)
	s.runner.step(dt)

	s.Len(s.sender.byType(protocol.TypePlayerHoledOut), 2)
	holeStarts := s.sender.byType(protocol.TypeHoleStarted)
	s.Require().Len(holeStarts, 2)
	s.Equal(1, holeStarts[1].(*protocol.HoleStarted).Hole)
}

func (s *RunnerSuite) TestFinishingLastHoleCompletesGame() {
	s.startWith("p1")

	s.physics.QueueEvents(physics.Event{Kind: physics.EventSensorContact, Body: "p1", Sensor: "cup"})
	s.runner.step(dt)
	s.physics.QueueEvents(physics.Event{Kind: physics.EventSensorContact, Body: "p1", Sensor: "cup"})
	s.runner.step(dt)

	s.Require().Len(s.sender.byType(protocol.TypeGameCompleted), 1)
	s.Equal([]string{"Game completed"}, s.sender.closed)
	s.Equal([]FinishReason{FinishCompleted}, s.finished)

	select {
	case <-s.runner.Done():
	default:
		s.Fail("runner not done after game completion")
	}
}

func (s *RunnerSuite) TestAllPlayersLeavingAbandonsGame() {
	s.startWith("p1", "p2")

	s.runner.PlayerLeft("p1")
	s.runner.PlayerLeft("p2")
	s.runner.step(dt)

	s.Equal([]FinishReason{FinishAbandoned}, s.finished)
}

func (s *RunnerSuite) TestLastPlayerLeavingWhileWaitingAbandonsGame() {
	err := s.progression.StartGame("game-1", "ABC123", []model.PlayerID{"p1", "p2"}, model.CourseRoster{"links"})
	s.Require().NoError(err)

	// Only p1 ever connects, then drops while the roster is assembling
	s.runner.PlayerJoined("p1")
	s.runner.step(dt)
	s.Equal(model.GamePhaseWaiting, s.progression.GamePhase())

	s.runner.PlayerLeft("p1")
	s.runner.step(dt)

	s.Equal([]FinishReason{FinishAbandoned}, s.finished)
}

func (s *RunnerSuite) TestDisconnectCompletingHoleAdvances() {
	s.startWith("p1", "p2")

	s.physics.QueueEvents(physics.Event{Kind: physics.EventSensorContact, Body: "p1", Sensor: "cup"})
	s.runner.step(dt)
	s.Len(s.sender.byType(protocol.TypeHoleStarted), 1)

	s.runner.PlayerLeft("p2")
	s.runner.step(dt)

	// p2's departure left p1 as the full active set, completing the hole
	s.Len(s.sender.byType(protocol.TypeHoleStarted), 2)
	s.Empty(s.finished)
}

func (s *RunnerSuite) TestPickupSendsInventoryUpdate() {
	s.startWith("p1", "p2")

	s.runner.EnqueueInput("p1", model.PlayerCommand{Kind: model.CommandStickyBall})
	s.runner.step(dt)

	s.Require().NotEmpty(s.sender.sent["p1"])
	update := s.sender.sent["p1"][len(s.sender.sent["p1"])-1].(*protocol.InventoryUpdate)
	s.Len(update.PowerUps, 2)
}
