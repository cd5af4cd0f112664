package model

// CourseID identifies a course definition
type CourseID string

// CourseRoster is the ordered sequence of courses assigned to one game.
// Immutable once the game starts.
type CourseRoster []CourseID

// Course is a loaded course definition: an ordered sequence of holes
type Course struct {
	ID    CourseID
	Name  string
	Holes []Hole
}

// Hole describes one hole's static geometry, as far as the
// orchestration layer cares about it. Mesh assets and colliders
// belong to the physics and rendering collaborators.
type Hole struct {
	// Index within the course's ordered hole list
	Index int
	// StartPosition is where player bodies are placed when the hole begins
	StartPosition Vec3
	// Bounds is the playable volume; leaving it triggers an
	// out-of-bounds reset, and client-supplied points are clamped to it
	Bounds Box
	// Cup is the hole-sensor region: entering it while settled
	// completes the hole for that player
	Cup SensorRegion
	// Pickups are power-up pickup zones placed on this hole
	Pickups []PowerUpPickup
}

// SensorRegion is a spherical trigger volume
type SensorRegion struct {
	Position Vec3    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Contains reports whether p is inside the region
func (r SensorRegion) Contains(p Vec3) bool {
	return p.Sub(r.Position).Length() <= r.Radius
}

// PowerUpPickup is a pickup zone granting a power-up on contact
type PowerUpPickup struct {
	Kind   PowerUpKind  `json:"kind"`
	Region SensorRegion `json:"region"`
}
