package physics

import (
	"sort"

	"github.com/mcoot/fairway/internal/model"
)

// Tuning for the built-in integrator. Exact numeric tuning is
// configuration, not contract.
type Tuning struct {
	Gravity         float64 // downward acceleration, m/s²
	FloorFriction   float64 // velocity damping factor per second
	WallRestitution float64 // velocity retained after a wall bounce
	SettleSpeed     float64 // speed below which a body counts as resting
	SettleTicks     int     // consecutive resting ticks before settled
}

// DefaultTuning returns the integrator defaults
func DefaultTuning() Tuning {
	return Tuning{
		Gravity:         9.81,
		FloorFriction:   0.9,
		WallRestitution: 0.7,
		SettleSpeed:     0.05,
		SettleTicks:     8,
	}
}

type body struct {
	pos model.Vec3
	vel model.Vec3

	pendingImpulse model.Vec3
	pendingForce   model.Vec3

	restingTicks int
	settled      bool
	inSensor     map[string]bool
}

// Integrator is a fixed-step rigid-body engine sufficient for
// authoritative ball simulation: impulse/force integration, floor
// friction, wall bounces against the hole bounds, and sensor volumes.
type Integrator struct {
	tuning   Tuning
	friction float64
	bounds   model.Box
	sensors  []Sensor
	bodies   map[BodyID]*body
	paused   bool
}

var _ Engine = (*Integrator)(nil)

// NewIntegrator creates an integrator with the given tuning
func NewIntegrator(tuning Tuning) *Integrator {
	return &Integrator{
		tuning:   tuning,
		friction: tuning.FloorFriction,
		bodies:   make(map[BodyID]*body),
	}
}

func (e *Integrator) AddBody(id BodyID, pos model.Vec3) {
	e.bodies[id] = &body{pos: pos, inSensor: make(map[string]bool)}
}

func (e *Integrator) RemoveBody(id BodyID) {
	delete(e.bodies, id)
}

func (e *Integrator) Bodies() []BodyID {
	ids := make([]BodyID, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Integrator) Position(id BodyID) (model.Vec3, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return model.Vec3{}, false
	}
	return b.pos, true
}

func (e *Integrator) Velocity(id BodyID) (model.Vec3, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return model.Vec3{}, false
	}
	return b.vel, true
}

func (e *Integrator) SetPose(id BodyID, pos model.Vec3) {
	b, ok := e.bodies[id]
	if !ok {
		return
	}
	b.pos = pos
	b.vel = model.Vec3{}
	b.pendingImpulse = model.Vec3{}
	b.pendingForce = model.Vec3{}
	b.restingTicks = 0
	b.settled = false
	b.inSensor = make(map[string]bool)
}

func (e *Integrator) ZeroVelocity(id BodyID) {
	if b, ok := e.bodies[id]; ok {
		b.vel = model.Vec3{}
		b.pendingImpulse = model.Vec3{}
	}
}

func (e *Integrator) ApplyImpulse(id BodyID, impulse model.Vec3) {
	if b, ok := e.bodies[id]; ok {
		b.pendingImpulse = b.pendingImpulse.Add(impulse)
	}
}

func (e *Integrator) ApplyForce(id BodyID, force model.Vec3) {
	if b, ok := e.bodies[id]; ok {
		b.pendingForce = b.pendingForce.Add(force)
	}
}

func (e *Integrator) SetBounds(bounds model.Box) {
	e.bounds = bounds
}

func (e *Integrator) SetSensors(sensors []Sensor) {
	e.sensors = sensors
	for _, b := range e.bodies {
		b.inSensor = make(map[string]bool)
	}
}

func (e *Integrator) SetFloorFriction(friction float64) {
	e.friction = friction
}

func (e *Integrator) ResetFloorFriction() {
	e.friction = e.tuning.FloorFriction
}

func (e *Integrator) Pause() {
	e.paused = true
}

func (e *Integrator) Resume() {
	e.paused = false
}

// Step integrates one fixed timestep. Bodies are processed in sorted id
// order so event ordering is deterministic.
func (e *Integrator) Step(dt float64) []Event {
	if e.paused {
		return nil
	}

	var events []Event
	for _, id := range e.Bodies() {
		b := e.bodies[id]
		events = append(events, e.stepBody(id, b, dt)...)
	}
	return events
}

func (e *Integrator) stepBody(id BodyID, b *body, dt float64) []Event {
	var events []Event

	b.vel = b.vel.Add(b.pendingImpulse)
	b.vel = b.vel.Add(b.pendingForce.Scale(dt))
	b.pendingImpulse = model.Vec3{}
	b.pendingForce = model.Vec3{}

	// Gravity pulls the ball onto the floor; the floor supports it
	onFloor := b.pos.Y <= e.bounds.Min.Y+1e-6
	if !onFloor {
		b.vel.Y -= e.tuning.Gravity * dt
	}

	// Floor friction as exponential velocity decay
	decay := 1.0 - e.friction*dt
	if decay < 0 {
		decay = 0
	}
	b.vel.X *= decay
	b.vel.Z *= decay

	b.pos = b.pos.Add(b.vel.Scale(dt))

	events = append(events, e.collideWalls(id, b)...)

	if b.pos.Y < e.bounds.Min.Y-0.15 {
		events = append(events, Event{Kind: EventOutOfBounds, Body: id})
	}

	events = append(events, e.detectSettle(id, b)...)
	events = append(events, e.detectSensors(id, b)...)
	return events
}

func (e *Integrator) collideWalls(id BodyID, b *body) []Event {
	var events []Event
	bounced := false

	if b.pos.X < e.bounds.Min.X {
		b.pos.X = e.bounds.Min.X
		b.vel.X = -b.vel.X * e.tuning.WallRestitution
		bounced = true
	} else if b.pos.X > e.bounds.Max.X {
		b.pos.X = e.bounds.Max.X
		b.vel.X = -b.vel.X * e.tuning.WallRestitution
		bounced = true
	}

	if b.pos.Z < e.bounds.Min.Z {
		b.pos.Z = e.bounds.Min.Z
		b.vel.Z = -b.vel.Z * e.tuning.WallRestitution
		bounced = true
	} else if b.pos.Z > e.bounds.Max.Z {
		b.pos.Z = e.bounds.Max.Z
		b.vel.Z = -b.vel.Z * e.tuning.WallRestitution
		bounced = true
	}

	if b.pos.Y < e.bounds.Min.Y {
		b.pos.Y = e.bounds.Min.Y
		b.vel.Y = 0
	}

	if bounced {
		events = append(events, Event{Kind: EventWallContact, Body: id})
	}
	return events
}

func (e *Integrator) detectSettle(id BodyID, b *body) []Event {
	if b.vel.Length() < e.tuning.SettleSpeed {
		b.restingTicks++
		if b.restingTicks >= e.tuning.SettleTicks && !b.settled {
			b.settled = true
			b.vel = model.Vec3{}
			return []Event{{Kind: EventSettled, Body: id}}
		}
		return nil
	}

	b.restingTicks = 0
	b.settled = false
	return nil
}

func (e *Integrator) detectSensors(id BodyID, b *body) []Event {
	var events []Event
	for _, s := range e.sensors {
		inside := s.Region.Contains(b.pos)
		was := b.inSensor[s.ID]
		if inside && !was {
			events = append(events, Event{Kind: EventSensorContact, Body: id, Sensor: s.ID})
		}
		b.inSensor[s.ID] = inside
	}
	return events
}
