package course

import "github.com/mcoot/fairway/internal/model"

func flatHole(index int, length, width float64, cupX float64) model.Hole {
	return model.Hole{
		Index:         index,
		StartPosition: model.Vec3{X: 0, Y: 0, Z: 0},
		Bounds: model.Box{
			Min: model.Vec3{X: -2, Y: 0, Z: -width / 2},
			Max: model.Vec3{X: length, Y: 4, Z: width / 2},
		},
		Cup: model.SensorRegion{
			Position: model.Vec3{X: cupX},
			Radius:   0.25,
		},
	}
}

// builtinCourses returns the courses compiled into the server, so a game
// can always start even with no course files on disk
func builtinCourses() []*model.Course {
	meadow := &model.Course{
		ID:   "meadow",
		Name: "Meadow Links",
		Holes: []model.Hole{
			flatHole(0, 12, 6, 10),
			flatHole(1, 16, 8, 14),
			flatHole(2, 20, 6, 18),
		},
	}
	// A pickup mid-fairway on the long hole
	meadow.Holes[2].Pickups = []model.PowerUpPickup{
		{
			Kind:   model.PowerUpChipShot,
			Region: model.SensorRegion{Position: model.Vec3{X: 9}, Radius: 0.4},
		},
	}

	quarry := &model.Course{
		ID:   "quarry",
		Name: "Old Quarry",
		Holes: []model.Hole{
			flatHole(0, 10, 4, 8),
			flatHole(1, 24, 10, 22),
		},
	}
	quarry.Holes[1].Pickups = []model.PowerUpPickup{
		{
			Kind:   model.PowerUpTeleport,
			Region: model.SensorRegion{Position: model.Vec3{X: 12, Z: 3}, Radius: 0.4},
		},
		{
			Kind:   model.PowerUpIceRink,
			Region: model.SensorRegion{Position: model.Vec3{X: 16, Z: -3}, Radius: 0.4},
		},
	}

	return []*model.Course{meadow, quarry}
}
