package model

// GameID uniquely identifies one game instance (one play-through)
type GameID string

// GamePhase is the top level of the nested progression state machine
type GamePhase string

const (
	GamePhaseWaiting   GamePhase = "waiting"   // Waiting for the full roster to authenticate
	GamePhasePlaying   GamePhase = "playing"   // Courses being played
	GamePhaseCompleted GamePhase = "completed" // Last course finished
)

// CoursePhase is the middle level, active while GamePhase is playing
type CoursePhase string

const (
	CoursePhaseWaiting   CoursePhase = "waiting"   // Hole geometry loading
	CoursePhasePlaying   CoursePhase = "playing"   // Holes being played
	CoursePhaseCompleted CoursePhase = "completed" // No further hole in the course
)

// HolePhase is the innermost level, active while CoursePhase is playing
type HolePhase string

const (
	HolePhasePlaying   HolePhase = "playing"   // completed players ⊂ active players
	HolePhaseCompleted HolePhase = "completed" // completed players = active players
)

// CurrentHole is the single active hole within the active course.
// Owned exclusively by the progression state machine: replaced wholesale
// on hole advance, destroyed on course exit. Other components only read
// snapshots.
type CurrentHole struct {
	Hole Hole
	// CompletedPlayers is the set of active players who have finished
	// this hole. Hole completion is a set-equality check against the
	// active-player set, never a count.
	CompletedPlayers map[PlayerID]bool
}

// NewCurrentHole creates the tracking record for a freshly loaded hole
func NewCurrentHole(hole Hole) *CurrentHole {
	return &CurrentHole{
		Hole:             hole,
		CompletedPlayers: make(map[PlayerID]bool),
	}
}

// MarkCompleted records that a player finished the hole.
// Returns false if the player was already recorded; the completion fact
// is edge-triggered, one edge per player per hole.
func (h *CurrentHole) MarkCompleted(playerID PlayerID) bool {
	if h.CompletedPlayers[playerID] {
		return false
	}
	h.CompletedPlayers[playerID] = true
	return true
}

// IsComplete reports whether every active player has finished the hole.
// A shrinking active set (disconnects) can complete the hole on its own.
func (h *CurrentHole) IsComplete(active map[PlayerID]bool) bool {
	if len(active) == 0 {
		return false
	}
	for id := range active {
		if !h.CompletedPlayers[id] {
			return false
		}
	}
	return true
}
