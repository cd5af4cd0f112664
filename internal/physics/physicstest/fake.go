// Package physicstest provides a scripted physics engine for tests.
package physicstest

import (
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/physics"
)

// Fake is a physics.Engine that records every call and emits scripted
// events from Step, so orchestration tests can drive contact/settle
// facts without running a simulation.
type Fake struct {
	Positions  map[physics.BodyID]model.Vec3
	Velocities map[physics.BodyID]model.Vec3

	Impulses map[physics.BodyID][]model.Vec3
	Forces   map[physics.BodyID][]model.Vec3
	Poses    map[physics.BodyID][]model.Vec3
	Zeroed   []physics.BodyID

	Bounds        model.Box
	Sensors       []physics.Sensor
	FloorFriction float64
	Paused        bool
	StepCount     int

	queued []physics.Event
}

var _ physics.Engine = (*Fake)(nil)

// New creates an empty Fake
func New() *Fake {
	return &Fake{
		Positions:  make(map[physics.BodyID]model.Vec3),
		Velocities: make(map[physics.BodyID]model.Vec3),
		Impulses:   make(map[physics.BodyID][]model.Vec3),
		Forces:     make(map[physics.BodyID][]model.Vec3),
		Poses:      make(map[physics.BodyID][]model.Vec3),
	}
}

// QueueEvents schedules events to be returned by the next Step
func (f *Fake) QueueEvents(events ...physics.Event) {
	f.queued = append(f.queued, events...)
}

func (f *Fake) AddBody(id physics.BodyID, pos model.Vec3) {
	f.Positions[id] = pos
	f.Velocities[id] = model.Vec3{}
}

func (f *Fake) RemoveBody(id physics.BodyID) {
	delete(f.Positions, id)
	delete(f.Velocities, id)
}

func (f *Fake) Bodies() []physics.BodyID {
	ids := make([]physics.BodyID, 0, len(f.Positions))
	for id := range f.Positions {
		ids = append(ids, id)
	}
	return ids
}

func (f *Fake) Position(id physics.BodyID) (model.Vec3, bool) {
	pos, ok := f.Positions[id]
	return pos, ok
}

func (f *Fake) Velocity(id physics.BodyID) (model.Vec3, bool) {
	vel, ok := f.Velocities[id]
	return vel, ok
}

func (f *Fake) SetPose(id physics.BodyID, pos model.Vec3) {
	f.Positions[id] = pos
	f.Velocities[id] = model.Vec3{}
	f.Poses[id] = append(f.Poses[id], pos)
}

func (f *Fake) ZeroVelocity(id physics.BodyID) {
	f.Velocities[id] = model.Vec3{}
	f.Zeroed = append(f.Zeroed, id)
}

func (f *Fake) ApplyImpulse(id physics.BodyID, impulse model.Vec3) {
	f.Impulses[id] = append(f.Impulses[id], impulse)
}

func (f *Fake) ApplyForce(id physics.BodyID, force model.Vec3) {
	f.Forces[id] = append(f.Forces[id], force)
}

func (f *Fake) SetBounds(bounds model.Box) {
	f.Bounds = bounds
}

func (f *Fake) SetSensors(sensors []physics.Sensor) {
	f.Sensors = sensors
}

func (f *Fake) SetFloorFriction(friction float64) {
	f.FloorFriction = friction
}

func (f *Fake) ResetFloorFriction() {
	f.FloorFriction = 0
}

func (f *Fake) Pause() {
	f.Paused = true
}

func (f *Fake) Resume() {
	f.Paused = false
}

// Step returns the queued events and clears the queue
func (f *Fake) Step(dt float64) []physics.Event {
	f.StepCount++
	if f.Paused {
		return nil
	}
	events := f.queued
	f.queued = nil
	return events
}
