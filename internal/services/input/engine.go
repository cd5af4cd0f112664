package input

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/physics"
)

// Errors
var (
	// ErrMoveNotAllowed means a movement command arrived while the
	// player's ball was still in motion; the command is dropped
	ErrMoveNotAllowed = errors.New("player cannot move")
	// ErrAlreadyHoledOut means the player has finished the current hole
	ErrAlreadyHoledOut = errors.New("player already holed out")
)

// Sensor id for the cup; pickups and bumpers get generated ids
const cupSensorID = "cup"

// Tuning holds the gameplay constants of the effect table. Exact numbers
// are configuration, not contract.
type Tuning struct {
	MaxShotImpulse  float64 // cap on movement impulse magnitude
	ChipShotLoft    float64 // upward fraction added to a chip shot
	WindStrength    float64 // continuous wind force magnitude
	MagnetForce     float64 // hole-magnet pull force
	MagnetMinRange  float64 // distance under which the magnet stops pulling
	MagnetRange     float64 // distance within which the magnet pulls
	IceRinkFriction float64 // floor friction while ice rink is active
	BumperImpulse   float64 // knockback applied on bumper contact
	BumperHits      int     // contacts before a bumper despawns
}

// DefaultTuning returns the effect table defaults
func DefaultTuning() Tuning {
	return Tuning{
		MaxShotImpulse:  8.0,
		ChipShotLoft:    1.0,
		WindStrength:    2.0,
		MagnetForce:     4.0,
		MagnetMinRange:  0.3,
		MagnetRange:     3.0,
		IceRinkFriction: 0.01,
		BumperImpulse:   6.0,
		BumperHits:      3,
	}
}

type playerState struct {
	inventory *model.Inventory

	// present is false while the player is disconnected; state is kept
	// so a reconnect restores the same inventory and recovery position
	present bool

	// canMove gates movement commands: true from hole start or settle
	// until the next accepted move
	canMove bool
	// lastSettled is the recovery position for out-of-bounds resets
	lastSettled model.Vec3

	magnetActive  bool
	chipShotArmed bool
	stickyMarked  bool
	holedOut      bool
}

type bumper struct {
	kind     model.PowerUpKind // bumper or black_hole_bumper
	region   model.SensorRegion
	hitsLeft int
}

// Outcome reports the gameplay consequences of one batch of physics
// events, for the runner to feed into progression and broadcasts
type Outcome struct {
	// HoledOut lists players whose ball entered the cup this tick
	HoledOut []model.PlayerID
	// PickedUp lists power-up grants from pickup zones
	PickedUp []Pickup
	// Recovered lists players reset after going out of bounds
	Recovered []model.PlayerID
	// Settled lists players whose ball came to rest
	Settled []model.PlayerID
}

// Pickup is one power-up granted from a pickup zone
type Pickup struct {
	PlayerID model.PlayerID
	Kind     model.PowerUpKind
}

// Engine is the input validation engine and power-up effect table. All
// simulation mutation on behalf of players flows through it: commands are
// validated (movement gated on a settled ball, power-ups consumed
// atomically from the inventory) and only validated input reaches the
// physics collaborator. Not safe for concurrent use; the game tick loop
// is its only caller.
type Engine struct {
	physics physics.Engine
	tuning  Tuning
	logger  *slog.Logger

	players map[model.PlayerID]*playerState
	hole    model.Hole
	inHole  bool

	wind         model.Vec2
	windActive   bool
	stickyWalls  bool
	iceRink      bool
	bumpers      map[string]*bumper
	nextBumperID int
	pickups      map[string]model.PowerUpPickup
	nextPickupID int
}

// NewEngine creates an input engine driving the given physics collaborator
func NewEngine(phys physics.Engine, tuning Tuning, logger *slog.Logger) *Engine {
	return &Engine{
		physics: phys,
		tuning:  tuning,
		logger:  logger,
		players: make(map[model.PlayerID]*playerState),
		bumpers: make(map[string]*bumper),
		pickups: make(map[string]model.PowerUpPickup),
	}
}

func bodyFor(id model.PlayerID) physics.BodyID {
	return physics.BodyID(id)
}

// AddPlayer registers a player with the starting loadout, or restores a
// previously-departed player with their state intact. If a hole is in
// play the ball spawns at the hole start for a new player, or at the
// last settled position for a returning one.
func (e *Engine) AddPlayer(id model.PlayerID) {
	if ps, ok := e.players[id]; ok {
		if ps.present {
			return
		}
		ps.present = true
		if e.inHole && !ps.holedOut {
			e.physics.AddBody(bodyFor(id), ps.lastSettled)
			ps.canMove = true
		}
		return
	}

	ps := &playerState{
		inventory: model.DefaultInventory(),
		present:   true,
		canMove:   true,
	}
	e.players[id] = ps

	if e.inHole {
		ps.lastSettled = e.hole.StartPosition
		e.physics.AddBody(bodyFor(id), e.hole.StartPosition)
	}
}

// RemovePlayer takes a player's ball out of the simulation. Their state
// is retained in case they reconnect.
func (e *Engine) RemovePlayer(id model.PlayerID) {
	ps, ok := e.players[id]
	if !ok || !ps.present {
		return
	}
	ps.present = false
	e.physics.RemoveBody(bodyFor(id))
}

// StartHole resets the simulation for a new hole: balls return to the
// start position, hole-scoped effects (wind, sticky walls, ice rink,
// bumpers, magnets, marks) are cleared, and the cup and pickup sensors
// are installed
func (e *Engine) StartHole(hole model.Hole) {
	e.hole = hole
	e.inHole = true

	e.wind = model.Vec2{}
	e.windActive = false
	e.stickyWalls = false
	e.iceRink = false
	e.physics.ResetFloorFriction()
	e.bumpers = make(map[string]*bumper)

	e.pickups = make(map[string]model.PowerUpPickup)
	for _, p := range hole.Pickups {
		e.nextPickupID++
		e.pickups[fmt.Sprintf("pickup:%d", e.nextPickupID)] = p
	}

	e.physics.SetBounds(hole.Bounds)
	e.installSensors()

	for id, ps := range e.players {
		ps.canMove = true
		ps.lastSettled = hole.StartPosition
		ps.magnetActive = false
		ps.chipShotArmed = false
		ps.stickyMarked = false
		ps.holedOut = false
		if ps.present {
			e.physics.AddBody(bodyFor(id), hole.StartPosition)
		}
	}
}

// Validate checks a raw command against the player's state. Movement is
// gated on the ball being at rest; power-up commands atomically consume
// the matching inventory entry. A command that fails validation must not
// reach the simulation.
func (e *Engine) Validate(playerID model.PlayerID, cmd model.PlayerCommand) (model.ValidatedInput, error) {
	ps, ok := e.players[playerID]
	if !ok || !ps.present {
		return model.ValidatedInput{}, model.ErrNotInGame
	}
	if ps.holedOut {
		return model.ValidatedInput{}, ErrAlreadyHoledOut
	}

	if cmd.IsMovement() {
		if !ps.canMove {
			e.logger.Warn("dropping move while ball in motion", "player", playerID)
			return model.ValidatedInput{}, ErrMoveNotAllowed
		}
		return model.ValidatedInput{PlayerID: playerID, Command: cmd}, nil
	}

	kind, ok := cmd.PowerUpKind()
	if !ok {
		return model.ValidatedInput{}, model.ErrPowerUpNotHeld
	}
	if err := ps.inventory.Use(kind); err != nil {
		return model.ValidatedInput{}, err
	}
	return model.ValidatedInput{PlayerID: playerID, Command: cmd}, nil
}

// Apply executes a validated command against the simulation.
// Returns true when the command counts as a stroke.
func (e *Engine) Apply(input model.ValidatedInput) bool {
	ps, ok := e.players[input.PlayerID]
	if !ok {
		return false
	}
	cmd := input.Command
	body := bodyFor(input.PlayerID)

	switch cmd.Kind {
	case model.CommandMove:
		dir := cmd.Direction.ClampLength(e.tuning.MaxShotImpulse)
		impulse := model.Vec3{X: dir.X, Z: dir.Y}
		if ps.chipShotArmed {
			impulse.Y = dir.Length() * e.tuning.ChipShotLoft
			ps.chipShotArmed = false
		}
		e.physics.ApplyImpulse(body, impulse)
		ps.canMove = false
		return true

	case model.CommandTeleport:
		// Client-supplied point; never trusted past the hole bounds
		pos := e.hole.Bounds.Clamp(cmd.Point)
		e.physics.SetPose(body, pos)
		e.physics.ZeroVelocity(body)
		ps.lastSettled = pos
		ps.canMove = true

	case model.CommandHoleMagnet:
		ps.magnetActive = true

	case model.CommandChipShot:
		ps.chipShotArmed = true

	case model.CommandStickyBall:
		for other, os := range e.players {
			if other != input.PlayerID && !os.holedOut {
				os.stickyMarked = true
			}
		}

	case model.CommandBumper, model.CommandBlackHoleBumper:
		kind := model.PowerUpBumper
		if cmd.Kind == model.CommandBlackHoleBumper {
			kind = model.PowerUpBlackHoleBumper
		}
		e.nextBumperID++
		id := fmt.Sprintf("bumper:%d", e.nextBumperID)
		e.bumpers[id] = &bumper{
			kind: kind,
			region: model.SensorRegion{
				Position: e.hole.Bounds.Clamp(cmd.Point),
				Radius:   0.5,
			},
			hitsLeft: e.tuning.BumperHits,
		}
		e.installSensors()

	case model.CommandWind:
		e.wind = cmd.Direction.Normalize()
		e.windActive = true

	case model.CommandStickyWalls:
		e.stickyWalls = true

	case model.CommandIceRink:
		e.iceRink = true
		e.physics.SetFloorFriction(e.tuning.IceRinkFriction)
	}
	return false
}

// Tick applies continuous effects (wind, hole magnets) for one step.
// Called once per tick, before the physics step.
func (e *Engine) Tick() {
	for id, ps := range e.players {
		if !ps.present || ps.holedOut {
			continue
		}
		body := bodyFor(id)

		if e.windActive {
			e.physics.ApplyForce(body, model.Vec3{
				X: e.wind.X * e.tuning.WindStrength,
				Z: e.wind.Y * e.tuning.WindStrength,
			})
		}

		if ps.magnetActive {
			pos, ok := e.physics.Position(body)
			if !ok {
				continue
			}
			delta := e.hole.Cup.Position.Sub(pos)
			if d := delta.Length(); d > e.tuning.MagnetMinRange && d <= e.tuning.MagnetRange {
				e.physics.ApplyForce(body, delta.Normalize().Scale(e.tuning.MagnetForce))
			}
		}
	}
}

// HandleEvents consumes one step's physics events and returns their
// gameplay consequences
func (e *Engine) HandleEvents(events []physics.Event) Outcome {
	var out Outcome

	for _, ev := range events {
		playerID := model.PlayerID(ev.Body)
		ps, isPlayer := e.players[playerID]

		switch ev.Kind {
		case physics.EventSettled:
			if !isPlayer || ps.holedOut {
				continue
			}
			ps.canMove = true
			ps.magnetActive = false
			if pos, ok := e.physics.Position(ev.Body); ok {
				ps.lastSettled = pos
			}
			out.Settled = append(out.Settled, playerID)

		case physics.EventOutOfBounds:
			if !isPlayer {
				continue
			}
			e.physics.SetPose(ev.Body, ps.lastSettled)
			e.physics.ZeroVelocity(ev.Body)
			ps.canMove = true
			out.Recovered = append(out.Recovered, playerID)
			e.logger.Info("ball out of bounds, recovered", "player", playerID)

		case physics.EventWallContact:
			// Sticky effects only bind a ball in flight: a resting
			// contact passes through untouched
			if isPlayer && !ps.canMove && (e.stickyWalls || ps.stickyMarked) {
				ps.stickyMarked = false
				e.physics.ZeroVelocity(ev.Body)
				ps.canMove = true
			}

		case physics.EventSensorContact:
			e.handleSensorContact(ev, &out)
		}
	}
	return out
}

func (e *Engine) handleSensorContact(ev physics.Event, out *Outcome) {
	playerID := model.PlayerID(ev.Body)
	ps, isPlayer := e.players[playerID]
	if !isPlayer {
		return
	}

	if ev.Sensor == cupSensorID {
		if ps.holedOut {
			return
		}
		ps.holedOut = true
		e.physics.RemoveBody(ev.Body)
		out.HoledOut = append(out.HoledOut, playerID)
		return
	}

	if pickup, ok := e.pickups[ev.Sensor]; ok {
		if err := ps.inventory.Add(pickup.Kind); err != nil {
			// Full inventory: the pickup stays on the course
			return
		}
		delete(e.pickups, ev.Sensor)
		e.installSensors()
		out.PickedUp = append(out.PickedUp, Pickup{PlayerID: playerID, Kind: pickup.Kind})
		return
	}

	if b, ok := e.bumpers[ev.Sensor]; ok {
		pos, ok := e.physics.Position(ev.Body)
		if !ok {
			return
		}
		dir := pos.Sub(b.region.Position).Normalize()
		if dir.Length() == 0 {
			dir = model.Vec3{X: 1}
		}
		if b.kind == model.PowerUpBlackHoleBumper {
			// Pulls the ball in rather than knocking it away
			dir = dir.Scale(-1)
		}
		e.physics.ZeroVelocity(ev.Body)
		e.physics.ApplyImpulse(ev.Body, dir.Scale(e.tuning.BumperImpulse))

		b.hitsLeft--
		if b.hitsLeft <= 0 {
			delete(e.bumpers, ev.Sensor)
			e.installSensors()
		}
	}
}

// installSensors pushes the current cup, pickup, and bumper volumes into
// the physics collaborator
func (e *Engine) installSensors() {
	sensors := []physics.Sensor{{ID: cupSensorID, Region: e.hole.Cup}}
	for id, p := range e.pickups {
		sensors = append(sensors, physics.Sensor{ID: id, Region: p.Region})
	}
	for id, b := range e.bumpers {
		sensors = append(sensors, physics.Sensor{ID: id, Region: b.region})
	}
	e.physics.SetSensors(sensors)
}

// Inventory returns a snapshot of a player's held power-ups
func (e *Engine) Inventory(playerID model.PlayerID) ([]model.PowerUpKind, bool) {
	ps, ok := e.players[playerID]
	if !ok {
		return nil, false
	}
	return ps.inventory.PowerUps(), true
}

// CanMove reports whether the player may issue a movement command
func (e *Engine) CanMove(playerID model.PlayerID) bool {
	ps, ok := e.players[playerID]
	return ok && ps.present && ps.canMove && !ps.holedOut
}
