// Package game hosts one game at a time on a game server: the fixed-rate
// tick loop, client sessions, and the registration handshake with the
// lobby server.
package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/metrics"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/physics"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/services/input"
	"github.com/mcoot/fairway/internal/services/progression"
)

// FinishReason says why a hosted game ended
type FinishReason string

const (
	// FinishCompleted means the last course was played out
	FinishCompleted FinishReason = "completed"
	// FinishAbandoned means every player disconnected mid-game
	FinishAbandoned FinishReason = "abandoned"
)

type eventKind int

const (
	eventInput eventKind = iota
	eventJoin
	eventLeave
)

// event is one externally-sourced fact delivered to the tick loop. All
// simulation state is owned by the loop; connection goroutines only
// enqueue.
type event struct {
	kind   eventKind
	player model.PlayerID
	cmd    model.PlayerCommand
}

// Sender delivers a message to one player's connection
type Sender interface {
	SendTo(player model.PlayerID, msg protocol.Message)
	Broadcast(msg protocol.Message)
	CloseAll(reason string)
}

// Runner drives one game: it owns the progression state machine, the
// input engine, and the physics collaborator, advancing them together on
// a fixed tick.
type Runner struct {
	logger      *slog.Logger
	clock       clock.Clock
	physics     physics.Engine
	input       *input.Engine
	progression *progression.Controller
	sender      Sender

	tickRate int
	tick     uint64
	sawJoin  bool

	events chan event
	onDone func(FinishReason)
	done   chan struct{}
}

// NewRunner assembles a runner for one game. onDone fires exactly once,
// from the tick goroutine, when the game ends.
func NewRunner(
	logger *slog.Logger,
	clk clock.Clock,
	phys physics.Engine,
	inputEngine *input.Engine,
	prog *progression.Controller,
	sender Sender,
	tickRate int,
	onDone func(FinishReason),
) *Runner {
	return &Runner{
		logger:      logger,
		clock:       clk,
		physics:     phys,
		input:       inputEngine,
		progression: prog,
		sender:      sender,
		tickRate:    tickRate,
		events:      make(chan event, 256),
		onDone:      onDone,
		done:        make(chan struct{}),
	}
}

// Done is closed when the game has ended
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// EnqueueInput delivers a raw player command to the tick loop. Commands
// are dropped, not blocked on, if the loop is saturated.
func (r *Runner) EnqueueInput(player model.PlayerID, cmd model.PlayerCommand) {
	r.enqueue(event{kind: eventInput, player: player, cmd: cmd})
}

// PlayerJoined reports a successful client authentication
func (r *Runner) PlayerJoined(player model.PlayerID) {
	r.enqueue(event{kind: eventJoin, player: player})
}

// PlayerLeft reports a client disconnect
func (r *Runner) PlayerLeft(player model.PlayerID) {
	r.enqueue(event{kind: eventLeave, player: player})
}

func (r *Runner) enqueue(ev event) {
	select {
	case r.events <- ev:
	case <-r.done:
	default:
		r.logger.Warn("event queue full, dropping", "player", ev.player)
	}
}

// Run executes the tick loop until the game ends or ctx is cancelled
func (r *Runner) Run(ctx context.Context) {
	interval := time.Second / time.Duration(r.tickRate)
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	dt := 1.0 / float64(r.tickRate)

	for {
		select {
		case <-ctx.Done():
			r.finish(FinishAbandoned)
			return
		case <-r.done:
			return
		case <-ticker.C():
			start := time.Now()
			r.step(dt)
			metrics.TicksTotal.Inc()
			metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

// step runs one tick in fixed order: drain external events, validate and
// apply commands, continuous effects, physics, then completion checks.
func (r *Runner) step(dt float64) {
	r.drainEvents()
	if r.isDone() {
		return
	}

	r.input.Tick()

	events := r.physics.Step(dt)
	outcome := r.input.HandleEvents(events)
	r.handleOutcome(outcome)
	if r.isDone() {
		return
	}

	r.tick++
	r.broadcastState()
}

func (r *Runner) drainEvents() {
	for {
		select {
		case ev := <-r.events:
			switch ev.kind {
			case eventInput:
				r.handleInput(ev.player, ev.cmd)
			case eventJoin:
				r.handleJoin(ev.player)
			case eventLeave:
				r.handleLeave(ev.player)
			}
			if r.isDone() {
				return
			}
		default:
			return
		}
	}
}

func (r *Runner) handleInput(player model.PlayerID, cmd model.PlayerCommand) {
	validated, err := r.input.Validate(player, cmd)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues(string(cmd.Kind)).Inc()
		r.logger.Debug("command rejected", "player", player, "kind", cmd.Kind, "err", err)
		return
	}

	if stroke := r.input.Apply(validated); stroke {
		if err := r.progression.RecordStroke(player); err != nil {
			r.logger.Warn("stroke not recorded", "player", player, "err", err)
		}
	}

	if _, isPowerUp := cmd.PowerUpKind(); isPowerUp {
		r.sendInventory(player)
	}
}

func (r *Runner) handleJoin(player model.PlayerID) {
	r.input.AddPlayer(player)
	t, err := r.progression.PlayerJoined(player)
	if err != nil {
		r.logger.Warn("join rejected by progression", "player", player, "err", err)
		return
	}
	r.sawJoin = true
	metrics.ConnectedPlayers.Set(float64(r.progression.ActiveCount()))
	r.applyTransition(t)
}

func (r *Runner) handleLeave(player model.PlayerID) {
	r.input.RemovePlayer(player)
	t, err := r.progression.PlayerLeft(player)
	if err != nil {
		r.logger.Warn("leave rejected by progression", "player", player, "err", err)
		return
	}
	metrics.ConnectedPlayers.Set(float64(r.progression.ActiveCount()))
	r.applyTransition(t)

	// A game every player has abandoned is discarded, and the server
	// goes back to accepting assignments. This covers a roster that
	// never fully assembled: the last connected player dropping out
	// while the game is still waiting must not leave the server busy
	// forever.
	if r.sawJoin && r.progression.ActiveCount() == 0 {
		r.logger.Info("all players gone, abandoning game")
		r.finish(FinishAbandoned)
	}
}

func (r *Runner) handleOutcome(out input.Outcome) {
	for _, pickup := range out.PickedUp {
		r.sendInventory(pickup.PlayerID)
	}

	for _, player := range out.HoledOut {
		strokes := r.currentHoleStrokes(player)
		t, err := r.progression.MarkHoleCompleted(player)
		if err != nil {
			r.logger.Warn("hole completion not recorded", "player", player, "err", err)
			continue
		}
		r.sender.Broadcast(&protocol.PlayerHoledOut{Player: player, Strokes: strokes})
		r.applyTransition(t)
		if r.isDone() {
			return
		}
	}
}

func (r *Runner) currentHoleStrokes(player model.PlayerID) int {
	hole, ok := r.progression.CurrentHole()
	if !ok {
		return 0
	}
	score, ok := r.progression.Scores()[player]
	if !ok || hole.Index >= len(score.HoleStrokes) {
		return 0
	}
	return score.HoleStrokes[hole.Index]
}

func (r *Runner) applyTransition(t progression.Transition) {
	if t.GameCompleted {
		r.completeGame()
		return
	}

	if t.NewCourse != nil {
		// Freeze the simulation while the new course is instantiated
		r.physics.Pause()
		r.sender.Broadcast(&protocol.CourseStarted{
			Course: t.NewCourse.ID,
			Name:   t.NewCourse.Name,
			Holes:  len(t.NewCourse.Holes),
		})
	}

	if t.NewHole != nil {
		r.input.StartHole(*t.NewHole)
		if t.NewCourse != nil {
			r.physics.Resume()
		}

		courseID, _ := r.progression.CurrentCourse()
		r.sender.Broadcast(&protocol.HoleStarted{
			Course: courseID,
			Hole:   t.NewHole.Index,
			Start:  t.NewHole.StartPosition,
		})
	}
}

func (r *Runner) completeGame() {
	scores := r.progression.Scores()
	final := make([]protocol.FinalScore, 0, len(scores))
	for id, score := range scores {
		final = append(final, protocol.FinalScore{Player: id, Total: score.Total})
	}

	r.sender.Broadcast(&protocol.GameCompleted{Scores: final})
	r.sender.CloseAll("Game completed")
	r.finish(FinishCompleted)
}

func (r *Runner) broadcastState() {
	ids := r.physics.Bodies()
	balls := make([]protocol.BallState, 0, len(ids))
	for _, id := range ids {
		pos, ok := r.physics.Position(id)
		if !ok {
			continue
		}
		vel, _ := r.physics.Velocity(id)
		balls = append(balls, protocol.BallState{
			Player:   model.PlayerID(id),
			Position: pos,
			Velocity: vel,
		})
	}
	r.sender.Broadcast(&protocol.GameState{Tick: r.tick, Balls: balls})
}

func (r *Runner) sendInventory(player model.PlayerID) {
	inv, ok := r.input.Inventory(player)
	if !ok {
		return
	}
	r.sender.SendTo(player, &protocol.InventoryUpdate{PowerUps: inv})
}

func (r *Runner) isDone() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Runner) finish(reason FinishReason) {
	select {
	case <-r.done:
		return
	default:
	}
	close(r.done)
	if r.onDone != nil {
		r.onDone(reason)
	}
}
