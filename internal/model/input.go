package model

// CommandKind identifies a player-issued command
type CommandKind string

const (
	CommandMove            CommandKind = "move"
	CommandTeleport        CommandKind = "teleport"
	CommandHoleMagnet      CommandKind = "hole_magnet"
	CommandChipShot        CommandKind = "chip_shot"
	CommandStickyBall      CommandKind = "sticky_ball"
	CommandBumper          CommandKind = "bumper"
	CommandBlackHoleBumper CommandKind = "black_hole_bumper"
	CommandWind            CommandKind = "wind"
	CommandStickyWalls     CommandKind = "sticky_walls"
	CommandIceRink         CommandKind = "ice_rink"
)

// PlayerCommand is a raw, untrusted client command. It must pass the
// input validation engine before it can affect the simulation.
type PlayerCommand struct {
	Kind CommandKind
	// Direction carries the movement vector for move commands and the
	// wind direction for wind commands
	Direction Vec2
	// Point carries the client-supplied position for teleport and
	// bumper commands; never trusted without bounds-checking
	Point Vec3
}

// IsMovement reports whether the command is valid only while the
// issuing player is allowed to move.
func (c PlayerCommand) IsMovement() bool {
	return c.Kind == CommandMove
}

// PowerUpKind returns the power-up the command consumes, or ok=false
// for plain movement.
func (c PlayerCommand) PowerUpKind() (PowerUpKind, bool) {
	switch c.Kind {
	case CommandTeleport:
		return PowerUpTeleport, true
	case CommandHoleMagnet:
		return PowerUpHoleMagnet, true
	case CommandChipShot:
		return PowerUpChipShot, true
	case CommandStickyBall:
		return PowerUpStickyBall, true
	case CommandBumper:
		return PowerUpBumper, true
	case CommandBlackHoleBumper:
		return PowerUpBlackHoleBumper, true
	case CommandWind:
		return PowerUpWind, true
	case CommandStickyWalls:
		return PowerUpStickyWalls, true
	case CommandIceRink:
		return PowerUpIceRink, true
	default:
		return "", false
	}
}

// ValidatedInput is an ephemeral event carrying a command that has
// passed the input validation engine. Simulation-mutating systems may
// assume it is safe to apply without re-checking permission.
type ValidatedInput struct {
	PlayerID PlayerID
	Command  PlayerCommand
}
