package course

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fairway/internal/model"
)

func TestBuiltinCoursesAreLoadable(t *testing.T) {
	lib := NewLibrary()

	ids := lib.IDs()
	require.NotEmpty(t, ids)

	for _, id := range ids {
		c, err := lib.Course(id)
		require.NoError(t, err)
		assert.NotEmpty(t, c.Holes)
		for i, h := range c.Holes {
			assert.Equal(t, i, h.Index)
			assert.True(t, h.Bounds.Contains(h.StartPosition))
			assert.True(t, h.Bounds.Contains(h.Cup.Position))
		}
	}
}

func TestUnknownCourse(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.Course("atlantis")
	assert.ErrorIs(t, err, model.ErrUnknownCourse)
}

func TestDefaultRoster(t *testing.T) {
	lib := NewLibrary()

	roster := lib.DefaultRoster(1)
	assert.Len(t, roster, 1)

	all := lib.DefaultRoster(100)
	assert.Len(t, all, len(lib.IDs()))
}

const sampleCourseYAML = `
id: dunes
name: Windy Dunes
holes:
  - start: {x: 0, y: 0, z: 0}
    bounds:
      min: {x: -2, y: 0, z: -4}
      max: {x: 15, y: 4, z: 4}
    cup:
      position: {x: 12, y: 0, z: 1}
      radius: 0.25
    pickups:
      - kind: wind
        region:
          position: {x: 6, y: 0, z: 0}
          radius: 0.4
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dunes.yaml"), []byte(sampleCourseYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lib := NewLibrary()
	require.NoError(t, lib.LoadDir(dir))

	c, err := lib.Course("dunes")
	require.NoError(t, err)
	assert.Equal(t, "Windy Dunes", c.Name)
	require.Len(t, c.Holes, 1)
	assert.Equal(t, model.Vec3{X: 12, Z: 1}, c.Holes[0].Cup.Position)
	require.Len(t, c.Holes[0].Pickups, 1)
	assert.Equal(t, model.PowerUpWind, c.Holes[0].Pickups[0].Kind)
}

func TestLoadDirRejectsStartOutsideBounds(t *testing.T) {
	bad := `
id: broken
holes:
  - start: {x: 100, y: 0, z: 0}
    bounds:
      min: {x: -2, y: 0, z: -4}
      max: {x: 15, y: 4, z: 4}
    cup:
      position: {x: 12, y: 0, z: 0}
      radius: 0.25
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(bad), 0o644))

	lib := NewLibrary()
	assert.Error(t, lib.LoadDir(dir))
}
