package factory

import (
	"time"

	"github.com/mcoot/fairway/internal/dependencies/mocks"
	"github.com/mcoot/fairway/internal/storage/memory"
	"github.com/mcoot/fairway/internal/testutil"
)

// TestLobbyApp extends LobbyApp with test-specific helpers
type TestLobbyApp struct {
	*LobbyApp

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestLobbyApp creates a LobbyApp with in-memory storage and mocked
// clock and randomness
func NewTestLobbyApp() *TestLobbyApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newLobbyAppWithDependencies(store, mockClock, mockRandom, testutil.NopLogger())

	return &TestLobbyApp{
		LobbyApp:   app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
