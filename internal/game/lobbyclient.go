package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/mcoot/fairway/internal/config"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/transport"
)

// LobbyClient maintains the game server's registration with the lobby
// server: handshake, availability announcements, and assignment intake.
// The handshake retry budget is bounded; exhausting it is fatal for the
// process.
type LobbyClient struct {
	cfg     config.GameConfig
	logger  *slog.Logger
	manager *Manager

	conn *transport.Conn
}

// NewLobbyClient creates a registration client for the given manager
func NewLobbyClient(cfg config.GameConfig, logger *slog.Logger, manager *Manager) *LobbyClient {
	c := &LobbyClient{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
	}
	manager.SetOnFinished(c.gameFinished)
	return c
}

// Run registers with the lobby server and serves assignments until ctx
// is cancelled or the registration cannot be re-established
func (c *LobbyClient) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil {
			return err
		}

		if err := c.serve(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("lobby connection lost, re-registering", "err", err)
			continue
		}
		return nil
	}
}

// connect dials the lobby server and completes the hello handshake,
// retrying on a fixed interval up to the configured attempt budget
func (c *LobbyClient) connect(ctx context.Context) error {
	backoff := retry.NewConstant(c.cfg.HandshakeInterval)
	backoff = retry.WithMaxRetries(uint64(c.cfg.HandshakeAttempts-1), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.handshake(ctx); err != nil {
			c.logger.Warn("lobby handshake failed",
				"attempt", attempt, "max_attempts", c.cfg.HandshakeAttempts, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.
			In("lobby-registration").
			With("lobby_url", c.cfg.LobbyURL).
			With("attempts", attempt).
			Wrapf(err, "lobby registration handshake exhausted its retry budget")
	}

	c.logger.Info("registered with lobby server", "lobby_url", c.cfg.LobbyURL)
	return nil
}

func (c *LobbyClient) handshake(ctx context.Context) error {
	conn, err := transport.Dial(ctx, c.cfg.LobbyURL)
	if err != nil {
		return err
	}

	if err := conn.Send(&protocol.GameServerHello{}); err != nil {
		_ = conn.Close("")
		return err
	}

	raw, err := conn.ReadRaw()
	if err != nil {
		_ = conn.Close("")
		return err
	}
	msg, err := protocol.DecodeLobbyToGameServer(raw)
	if err != nil {
		_ = conn.Close("protocol error")
		return err
	}
	if _, ok := msg.(*protocol.LobbyServerHello); !ok {
		_ = conn.Close("protocol error")
		return errors.New("expected lobby_server_hello")
	}

	c.conn = conn
	return nil
}

// serve announces availability and handles assignments until the
// connection drops
func (c *LobbyClient) serve(ctx context.Context) error {
	if err := c.announce(); err != nil {
		return err
	}

	for {
		raw, err := c.conn.ReadRaw()
		if err != nil {
			return err
		}

		msg, err := protocol.DecodeLobbyToGameServer(raw)
		if err != nil {
			c.logger.Error("lobby protocol error", "err", err)
			_ = c.conn.Close("protocol error")
			return err
		}

		switch typed := msg.(type) {
		case *protocol.CreateGame:
			c.handleCreateGame(typed)
		case *protocol.LobbyServerHello:
			// Benign repeat
		}
	}
}

// announce tells the lobby server whether this host can take a game
func (c *LobbyClient) announce() error {
	if c.manager.Busy() {
		return c.conn.Send(&protocol.Busy{})
	}
	return c.conn.Send(&protocol.Available{Address: c.cfg.PublishAddress})
}

func (c *LobbyClient) handleCreateGame(create *protocol.CreateGame) {
	if err := c.manager.StartGame(create); err != nil {
		c.logger.Error("rejecting assignment", "lobby", create.Lobby, "err", err)
		_ = c.conn.Send(&protocol.Busy{})
		return
	}

	_ = c.conn.Send(&protocol.GameCreated{Lobby: create.Lobby})
	_ = c.conn.Send(&protocol.Busy{})
}

// gameFinished re-announces availability once the hosted game ends
func (c *LobbyClient) gameFinished(reason FinishReason) {
	if c.conn == nil {
		return
	}
	if err := c.conn.Send(&protocol.Available{Address: c.cfg.PublishAddress}); err != nil {
		c.logger.Warn("failed to re-announce availability", "err", err)
	}
}
