package progression

import (
	"log/slog"
	"sync"

	"github.com/mcoot/fairway/internal/model"
)

// CourseSource resolves course IDs to loaded course definitions
type CourseSource interface {
	Course(id model.CourseID) (*model.Course, error)
}

// Transition describes what changed as a result of one progression step.
// The game runner reacts to it: resetting ball poses on a new hole,
// pausing physics across a course load, tearing the session down on game
// completion.
type Transition struct {
	HoleCompleted   bool
	CourseCompleted bool
	GameCompleted   bool

	// NewHole is set when play advances to another hole, whether within
	// the same course or at the start of the next one
	NewHole *model.Hole
	// NewCourse is set when play advances to the next course
	NewCourse *model.Course
}

// Controller runs the nested game/course/hole progression state machine
// for the single game hosted by this server. The hole-completion rule is
// set equality between completed players and the live active-player set,
// so disconnects can complete a hole without any new stroke.
type Controller struct {
	courses CourseSource
	logger  *slog.Logger

	mu          sync.Mutex
	gameID      model.GameID
	lobby       model.LobbyCode
	roster      map[model.PlayerID]bool
	courseOrder model.CourseRoster

	gamePhase   model.GamePhase
	coursePhase model.CoursePhase
	holePhase   model.HolePhase

	courseIdx int
	course    *model.Course
	holeIdx   int
	hole      *model.CurrentHole

	active map[model.PlayerID]bool
	scores map[model.PlayerID]*model.PlayerScore
}

// NewController creates a progression Controller with no game loaded
func NewController(courses CourseSource, logger *slog.Logger) *Controller {
	return &Controller{
		courses: courses,
		logger:  logger,
	}
}

// StartGame initialises the state machine for a new game in the waiting
// phase. Play begins once the full roster has authenticated.
func (c *Controller) StartGame(gameID model.GameID, lobby model.LobbyCode, roster []model.PlayerID, courseOrder model.CourseRoster) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gamePhase == model.GamePhasePlaying {
		return model.ErrGameInProgress
	}
	if len(courseOrder) == 0 {
		return model.ErrUnknownCourse
	}

	c.gameID = gameID
	c.lobby = lobby
	c.roster = make(map[model.PlayerID]bool, len(roster))
	c.scores = make(map[model.PlayerID]*model.PlayerScore, len(roster))
	for _, p := range roster {
		c.roster[p] = true
		c.scores[p] = &model.PlayerScore{PlayerID: p}
	}
	c.courseOrder = courseOrder
	c.courseIdx = 0
	c.course = nil
	c.holeIdx = 0
	c.hole = nil
	c.active = make(map[model.PlayerID]bool)

	c.gamePhase = model.GamePhaseWaiting
	c.coursePhase = model.CoursePhaseWaiting
	c.holePhase = model.HolePhasePlaying

	c.logger.Info("game initialised", "game", gameID, "lobby", lobby,
		"players", len(roster), "courses", len(courseOrder))
	return nil
}

// PlayerJoined records an authenticated player as active. When the full
// roster is present the game transitions from waiting to playing and the
// first hole of the first course loads.
func (c *Controller) PlayerJoined(playerID model.PlayerID) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roster[playerID] {
		return Transition{}, model.ErrNotInGame
	}
	if c.gamePhase == model.GamePhaseCompleted {
		return Transition{}, model.ErrGameCompleted
	}

	c.active[playerID] = true

	if c.gamePhase == model.GamePhaseWaiting && len(c.active) == len(c.roster) {
		return c.beginPlay()
	}
	return Transition{}, nil
}

// PlayerLeft removes a player from the active set. The shrunken set can
// satisfy the hole-completion rule by itself, so completion is re-checked.
func (c *Controller) PlayerLeft(playerID model.PlayerID) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active[playerID] {
		return Transition{}, nil
	}
	delete(c.active, playerID)

	if c.gamePhase != model.GamePhasePlaying || c.hole == nil {
		return Transition{}, nil
	}
	return c.checkHoleComplete()
}

// MarkHoleCompleted records that a player holed out, then checks whether
// the hole is complete for everyone still active
func (c *Controller) MarkHoleCompleted(playerID model.PlayerID) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gamePhase != model.GamePhasePlaying || c.hole == nil {
		return Transition{}, model.ErrNoActiveHole
	}
	if !c.active[playerID] {
		return Transition{}, model.ErrNotInGame
	}

	if !c.hole.MarkCompleted(playerID) {
		// Already recorded for this hole
		return Transition{}, nil
	}

	c.logger.Info("player completed hole", "player", playerID,
		"course", c.course.ID, "hole", c.holeIdx)
	return c.checkHoleComplete()
}

// RecordStroke counts one stroke for a player on the current hole
func (c *Controller) RecordStroke(playerID model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	score, ok := c.scores[playerID]
	if !ok {
		return model.ErrNotInGame
	}
	if c.gamePhase != model.GamePhasePlaying || c.hole == nil {
		return model.ErrNoActiveHole
	}
	score.RecordStroke(c.holeIdx)
	return nil
}

// beginPlay transitions waiting -> playing and loads the first course.
// Caller holds the lock.
func (c *Controller) beginPlay() (Transition, error) {
	course, err := c.courses.Course(c.courseOrder[0])
	if err != nil {
		return Transition{}, err
	}

	c.gamePhase = model.GamePhasePlaying
	c.course = course
	c.coursePhase = model.CoursePhasePlaying
	c.holeIdx = 0
	c.hole = model.NewCurrentHole(course.Holes[0])
	c.holePhase = model.HolePhasePlaying

	for _, score := range c.scores {
		score.StartCourse(len(course.Holes))
	}

	c.logger.Info("game started", "game", c.gameID, "course", course.ID)
	return Transition{
		NewCourse: course,
		NewHole:   &course.Holes[0],
	}, nil
}

// checkHoleComplete advances the state machine if the current hole is
// done. Caller holds the lock.
func (c *Controller) checkHoleComplete() (Transition, error) {
	if !c.hole.IsComplete(c.active) {
		return Transition{}, nil
	}

	c.holePhase = model.HolePhaseCompleted
	t := Transition{HoleCompleted: true}

	if c.holeIdx+1 < len(c.course.Holes) {
		c.holeIdx++
		c.hole = model.NewCurrentHole(c.course.Holes[c.holeIdx])
		c.holePhase = model.HolePhasePlaying
		t.NewHole = &c.course.Holes[c.holeIdx]
		c.logger.Info("advancing to next hole", "course", c.course.ID, "hole", c.holeIdx)
		return t, nil
	}

	// Course is done
	c.coursePhase = model.CoursePhaseCompleted
	t.CourseCompleted = true
	c.hole = nil

	if c.courseIdx+1 < len(c.courseOrder) {
		c.courseIdx++
		course, err := c.courses.Course(c.courseOrder[c.courseIdx])
		if err != nil {
			return Transition{}, err
		}

		c.course = course
		c.coursePhase = model.CoursePhasePlaying
		c.holeIdx = 0
		c.hole = model.NewCurrentHole(course.Holes[0])
		c.holePhase = model.HolePhasePlaying

		for _, score := range c.scores {
			score.StartCourse(len(course.Holes))
		}

		t.NewCourse = course
		t.NewHole = &course.Holes[0]
		c.logger.Info("advancing to next course", "course", course.ID)
		return t, nil
	}

	// No further course: the game is over
	c.gamePhase = model.GamePhaseCompleted
	c.course = nil
	t.GameCompleted = true
	c.logger.Info("game completed", "game", c.gameID)
	return t, nil
}

// GamePhase returns the current top-level phase
func (c *Controller) GamePhase() model.GamePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gamePhase
}

// CurrentCourse returns the ID of the course in play
func (c *Controller) CurrentCourse() (model.CourseID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.course == nil {
		return "", false
	}
	return c.course.ID, true
}

// CurrentHole returns a snapshot of the active hole's geometry
func (c *Controller) CurrentHole() (model.Hole, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hole == nil {
		return model.Hole{}, false
	}
	return c.hole.Hole, true
}

// HasCompletedHole reports whether a player already holed out on the
// current hole
func (c *Controller) HasCompletedHole(playerID model.PlayerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hole == nil {
		return false
	}
	return c.hole.CompletedPlayers[playerID]
}

// ActiveCount returns the number of live players
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// ActivePlayers returns a copy of the live player set
func (c *Controller) ActivePlayers() []model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()

	players := make([]model.PlayerID, 0, len(c.active))
	for p := range c.active {
		players = append(players, p)
	}
	return players
}

// Scores returns a snapshot of all player scores
func (c *Controller) Scores() map[model.PlayerID]model.PlayerScore {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[model.PlayerID]model.PlayerScore, len(c.scores))
	for id, score := range c.scores {
		copied := *score
		copied.HoleStrokes = append([]int(nil), score.HoleStrokes...)
		out[id] = copied
	}
	return out
}

// Lobby returns the lobby code this game was created for
func (c *Controller) Lobby() model.LobbyCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby
}

// Interface for dependency injection
type ControllerInterface interface {
	StartGame(gameID model.GameID, lobby model.LobbyCode, roster []model.PlayerID, courseOrder model.CourseRoster) error
	PlayerJoined(playerID model.PlayerID) (Transition, error)
	PlayerLeft(playerID model.PlayerID) (Transition, error)
	MarkHoleCompleted(playerID model.PlayerID) (Transition, error)
	RecordStroke(playerID model.PlayerID) error
	GamePhase() model.GamePhase
	CurrentCourse() (model.CourseID, bool)
	CurrentHole() (model.Hole, bool)
	HasCompletedHole(playerID model.PlayerID) bool
	ActiveCount() int
	ActivePlayers() []model.PlayerID
	Scores() map[model.PlayerID]model.PlayerScore
	Lobby() model.LobbyCode
}

var _ ControllerInterface = (*Controller)(nil)
