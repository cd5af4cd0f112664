package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/testutil"
)

func TestLobbyAppWiring(t *testing.T) {
	app := NewTestLobbyApp()
	app.MockRandom.QueueString("secret-1", "ABC123")
	ctx := context.Background()

	identity, err := app.CredentialController.IssueIdentity(ctx)
	require.NoError(t, err)

	lobby, err := app.LobbyController.CreateLobby(ctx, identity.Player.ID)
	require.NoError(t, err)
	require.Equal(t, model.LobbyCode("ABC123"), lobby.Code)

	require.NotNil(t, app.Server.Router())
}

func TestGameAppWiring(t *testing.T) {
	app, err := NewGameApp(config.DefaultGameConfig(), testutil.NopLogger())
	require.NoError(t, err)

	require.False(t, app.Manager.Busy())
	require.NotEmpty(t, app.Courses.IDs())
}
