package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fairway/internal/model"
)

const dt = 1.0 / 128.0

func testBounds() model.Box {
	return model.Box{
		Min: model.Vec3{X: -5, Y: 0, Z: -5},
		Max: model.Vec3{X: 5, Y: 2, Z: 5},
	}
}

func newTestIntegrator() *Integrator {
	e := NewIntegrator(DefaultTuning())
	e.SetBounds(testBounds())
	return e
}

func TestImpulseMovesBody(t *testing.T) {
	e := newTestIntegrator()
	e.AddBody("ball", model.Vec3{})

	e.ApplyImpulse("ball", model.Vec3{X: 2})
	e.Step(dt)

	pos, ok := e.Position("ball")
	require.True(t, ok)
	assert.Greater(t, pos.X, 0.0)
}

func TestFrictionStopsBody(t *testing.T) {
	e := newTestIntegrator()
	e.AddBody("ball", model.Vec3{})
	e.ApplyImpulse("ball", model.Vec3{X: 1})

	var settled bool
	for i := 0; i < 128*30 && !settled; i++ {
		for _, ev := range e.Step(dt) {
			if ev.Kind == EventSettled && ev.Body == "ball" {
				settled = true
			}
		}
	}
	assert.True(t, settled, "ball should come to rest under friction")
}

func TestWallBounceEmitsContact(t *testing.T) {
	e := newTestIntegrator()
	e.AddBody("ball", model.Vec3{X: 4.9})
	e.ApplyImpulse("ball", model.Vec3{X: 10})

	var bounced bool
	for i := 0; i < 128 && !bounced; i++ {
		for _, ev := range e.Step(dt) {
			if ev.Kind == EventWallContact {
				bounced = true
			}
		}
	}
	require.True(t, bounced)

	vel, _ := e.Velocity("ball")
	assert.Less(t, vel.X, 0.0, "velocity should reflect off the wall")
}

func TestSensorContactIsEdgeTriggered(t *testing.T) {
	e := newTestIntegrator()
	e.SetSensors([]Sensor{{ID: "cup", Region: model.SensorRegion{Position: model.Vec3{}, Radius: 1}}})
	e.AddBody("ball", model.Vec3{})

	var contacts int
	for i := 0; i < 16; i++ {
		for _, ev := range e.Step(dt) {
			if ev.Kind == EventSensorContact && ev.Sensor == "cup" {
				contacts++
			}
		}
	}
	assert.Equal(t, 1, contacts, "contact fires once on entry, not per tick")
}

func TestPauseFreezesSimulation(t *testing.T) {
	e := newTestIntegrator()
	e.AddBody("ball", model.Vec3{})
	e.ApplyImpulse("ball", model.Vec3{X: 5})

	e.Pause()
	assert.Empty(t, e.Step(dt))
	pos, _ := e.Position("ball")
	assert.Equal(t, model.Vec3{}, pos)

	e.Resume()
	e.Step(dt)
	pos, _ = e.Position("ball")
	assert.Greater(t, pos.X, 0.0)
}

func TestSetPoseClearsMotion(t *testing.T) {
	e := newTestIntegrator()
	e.AddBody("ball", model.Vec3{})
	e.ApplyImpulse("ball", model.Vec3{X: 5})
	e.Step(dt)

	e.SetPose("ball", model.Vec3{X: 1, Z: 1})
	pos, _ := e.Position("ball")
	vel, _ := e.Velocity("ball")
	assert.Equal(t, model.Vec3{X: 1, Z: 1}, pos)
	assert.Equal(t, model.Vec3{}, vel)
}
