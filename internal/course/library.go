// Package course holds course definitions: the built-in set compiled
// into the server plus any loaded from YAML files on disk.
package course

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/fairway/internal/model"
)

// Library is an immutable-after-load set of course definitions
type Library struct {
	courses map[model.CourseID]*model.Course
}

// NewLibrary creates a library holding the built-in courses
func NewLibrary() *Library {
	l := &Library{courses: make(map[model.CourseID]*model.Course)}
	for _, c := range builtinCourses() {
		l.courses[c.ID] = c
	}
	return l
}

// Course returns the definition for an ID, or ErrUnknownCourse
func (l *Library) Course(id model.CourseID) (*model.Course, error) {
	c, ok := l.courses[id]
	if !ok {
		return nil, model.ErrUnknownCourse
	}
	return c, nil
}

// IDs returns all known course IDs in sorted order
func (l *Library) IDs() []model.CourseID {
	ids := make([]model.CourseID, 0, len(l.courses))
	for id := range l.courses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefaultRoster returns up to n courses for a game whose request did not
// name any
func (l *Library) DefaultRoster(n int) model.CourseRoster {
	ids := l.IDs()
	if n < len(ids) {
		ids = ids[:n]
	}
	return model.CourseRoster(ids)
}

// LoadDir loads every .yaml course file in a directory, overriding
// built-ins on ID collision
func (l *Library) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading course dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		course, err := loadFile(path)
		if err != nil {
			return fmt.Errorf("loading course %s: %w", path, err)
		}
		l.courses[course.ID] = course
	}
	return nil
}

// YAML course file schema

type vecDef struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v vecDef) vec() model.Vec3 {
	return model.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

type regionDef struct {
	Position vecDef  `yaml:"position"`
	Radius   float64 `yaml:"radius"`
}

func (r regionDef) region() model.SensorRegion {
	return model.SensorRegion{Position: r.Position.vec(), Radius: r.Radius}
}

type pickupDef struct {
	Kind   string    `yaml:"kind"`
	Region regionDef `yaml:"region"`
}

type holeDef struct {
	Start   vecDef `yaml:"start"`
	Bounds  struct {
		Min vecDef `yaml:"min"`
		Max vecDef `yaml:"max"`
	} `yaml:"bounds"`
	Cup     regionDef   `yaml:"cup"`
	Pickups []pickupDef `yaml:"pickups"`
}

type courseDef struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Holes []holeDef `yaml:"holes"`
}

func loadFile(path string) (*model.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def courseDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return def.course()
}

func (d courseDef) course() (*model.Course, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("course has no id")
	}
	if len(d.Holes) == 0 {
		return nil, fmt.Errorf("course %s has no holes", d.ID)
	}

	course := &model.Course{
		ID:   model.CourseID(d.ID),
		Name: d.Name,
	}
	for i, h := range d.Holes {
		hole := model.Hole{
			Index:         i,
			StartPosition: h.Start.vec(),
			Bounds: model.Box{
				Min: h.Bounds.Min.vec(),
				Max: h.Bounds.Max.vec(),
			},
			Cup: h.Cup.region(),
		}
		if !hole.Bounds.Contains(hole.StartPosition) {
			return nil, fmt.Errorf("course %s hole %d: start outside bounds", d.ID, i)
		}
		for _, p := range h.Pickups {
			hole.Pickups = append(hole.Pickups, model.PowerUpPickup{
				Kind:   model.PowerUpKind(p.Kind),
				Region: p.Region.region(),
			})
		}
		course.Holes = append(course.Holes, hole)
	}
	return course, nil
}
