package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is a 128-bit ULID, issued once on first contact and stable
// across reconnects.
type PlayerID string

// Player represents a game participant
type Player struct {
	ID        PlayerID
	CreatedAt time.Time
}

// CredentialRecord binds a player identity to its secret.
// The secret is stored bcrypt-hashed; the plaintext is returned to the
// client exactly once, when the identity is issued, and is replayed by
// the client on every reconnect as the sole proof of identity.
type CredentialRecord struct {
	PlayerID   PlayerID
	SecretHash string // bcrypt hash
	CreatedAt  time.Time
}

// PlayerScore tracks one player's stroke counts for a running game.
// Keyed by PlayerID so it survives reconnects.
type PlayerScore struct {
	PlayerID PlayerID
	// Strokes per hole index within the current course
	HoleStrokes []int
	// Total across all completed courses in this game
	Total int
}

// RecordStroke increments the stroke count for the given hole,
// growing the per-hole slice as needed.
func (s *PlayerScore) RecordStroke(holeIndex int) {
	for len(s.HoleStrokes) <= holeIndex {
		s.HoleStrokes = append(s.HoleStrokes, 0)
	}
	s.HoleStrokes[holeIndex]++
	s.Total++
}

// StartCourse resets the per-hole counts for a new course,
// keeping the running total.
func (s *PlayerScore) StartCourse(holeCount int) {
	s.HoleStrokes = make([]int, holeCount)
}
