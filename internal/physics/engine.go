// Package physics defines the simulation collaborator consumed by the
// orchestration layer. The progression and input engines only ever talk
// to the Engine interface: apply impulses and forces, read poses, and
// observe contact/settle events emitted by each fixed step.
package physics

import "github.com/mcoot/fairway/internal/model"

// BodyID identifies a simulated body. Player bodies use the player's
// identity; transient obstacles use generated ids.
type BodyID string

// Sensor is a registered trigger volume
type Sensor struct {
	ID     string
	Region model.SensorRegion
}

// Engine is the authoritative rigid-body collaborator. All methods are
// called from the game's single tick loop; implementations need not be
// safe for concurrent use.
type Engine interface {
	// Body lifecycle
	AddBody(id BodyID, pos model.Vec3)
	RemoveBody(id BodyID)
	Bodies() []BodyID

	// Pose access. Raw transforms are only written for teleports and
	// hole-advance resets; everything else goes through forces.
	Position(id BodyID) (model.Vec3, bool)
	Velocity(id BodyID) (model.Vec3, bool)
	SetPose(id BodyID, pos model.Vec3)
	ZeroVelocity(id BodyID)

	// Force primitives
	ApplyImpulse(id BodyID, impulse model.Vec3)
	ApplyForce(id BodyID, force model.Vec3)

	// Environment
	SetBounds(bounds model.Box)
	SetSensors(sensors []Sensor)
	SetFloorFriction(friction float64)
	ResetFloorFriction()

	// Pause stops the physics-time source; Step is a no-op while
	// paused. Used while hole geometry is being instantiated.
	Pause()
	Resume()

	// Step advances the simulation by dt seconds and returns the
	// events produced, in deterministic order.
	Step(dt float64) []Event
}

// EventKind identifies a physics event
type EventKind string

const (
	// EventSettled fires once when a moving body comes to rest
	EventSettled EventKind = "settled"
	// EventSensorContact fires once when a body enters a sensor region
	EventSensorContact EventKind = "sensor_contact"
	// EventWallContact fires when a body bounces off the hole boundary
	EventWallContact EventKind = "wall_contact"
	// EventOutOfBounds fires when a body falls out of the playable volume
	EventOutOfBounds EventKind = "out_of_bounds"
)

// Event is one observation from a simulation step
type Event struct {
	Kind   EventKind
	Body   BodyID
	Sensor string // set for sensor contacts
}
