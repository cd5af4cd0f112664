package model

// PowerUpKind identifies a power-up
type PowerUpKind string

const (
	// Targeting self
	PowerUpTeleport   PowerUpKind = "teleport"
	PowerUpHoleMagnet PowerUpKind = "hole_magnet"
	PowerUpChipShot   PowerUpKind = "chip_shot"

	// Targeting other players
	PowerUpStickyBall PowerUpKind = "sticky_ball"

	// Targeting the environment
	PowerUpBumper          PowerUpKind = "bumper"
	PowerUpBlackHoleBumper PowerUpKind = "black_hole_bumper"
	PowerUpWind            PowerUpKind = "wind"
	PowerUpStickyWalls     PowerUpKind = "sticky_walls"
	PowerUpIceRink         PowerUpKind = "ice_rink"
)

// InventoryLimit is the maximum number of power-ups a player can hold
const InventoryLimit = 3

// Inventory is a bounded multiset of power-up kinds held by one player.
// Mutated only by the input validation engine.
type Inventory struct {
	powerUps []PowerUpKind
}

// NewInventory creates an inventory holding the given power-ups.
// Anything beyond the limit is dropped.
func NewInventory(kinds ...PowerUpKind) *Inventory {
	if len(kinds) > InventoryLimit {
		kinds = kinds[:InventoryLimit]
	}
	inv := &Inventory{powerUps: make([]PowerUpKind, len(kinds))}
	copy(inv.powerUps, kinds)
	return inv
}

// DefaultInventory returns the loadout new players start a game with
func DefaultInventory() *Inventory {
	return NewInventory(PowerUpHoleMagnet, PowerUpStickyBall, PowerUpStickyWalls)
}

// PowerUps returns a snapshot of the held power-ups
func (i *Inventory) PowerUps() []PowerUpKind {
	out := make([]PowerUpKind, len(i.powerUps))
	copy(out, i.powerUps)
	return out
}

// Size returns the number of held power-ups
func (i *Inventory) Size() int {
	return len(i.powerUps)
}

// Add stores a power-up, failing with ErrInventoryFull at capacity
func (i *Inventory) Add(kind PowerUpKind) error {
	if len(i.powerUps) >= InventoryLimit {
		return ErrInventoryFull
	}
	i.powerUps = append(i.powerUps, kind)
	return nil
}

// Use removes exactly one matching entry, or fails with ErrPowerUpNotHeld.
// An effect must never be applied without a successful removal.
func (i *Inventory) Use(kind PowerUpKind) error {
	for idx, held := range i.powerUps {
		if held == kind {
			i.powerUps = append(i.powerUps[:idx], i.powerUps[idx+1:]...)
			return nil
		}
	}
	return ErrPowerUpNotHeld
}
