package lobbyserver

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/fairway/internal/metrics"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/services/broker"
	"github.com/mcoot/fairway/internal/transport"
)

// runGameSession owns one game server connection from hello to disconnect
func (s *Server) runGameSession(conn *transport.Conn) {
	ctx := context.Background()

	raw, err := conn.ReadRaw()
	if err != nil {
		return
	}
	msg, err := protocol.DecodeGameServerToLobby(raw)
	if err != nil {
		s.logger.Warn("rejecting game server connection", "err", err)
		_ = conn.Close("protocol error")
		return
	}
	if _, ok := msg.(*protocol.GameServerHello); !ok {
		s.logger.Warn("rejecting game server connection", "err", "expected hello as first message")
		_ = conn.Close("protocol error")
		return
	}
	if err := conn.Send(&protocol.LobbyServerHello{}); err != nil {
		return
	}

	serverID := broker.ServerID(ulid.MustNew(ulid.Timestamp(s.clock.Now()), rand.Reader).String())
	logger := s.logger.With("server", serverID)

	s.broker.Register(serverID)
	s.mu.Lock()
	s.gameConns[serverID] = conn
	s.mu.Unlock()

	logger.Info("game server session established")

	defer s.cleanupGameSession(ctx, serverID, logger)

	for {
		raw, err := conn.ReadRaw()
		if err != nil {
			logger.Info("game server session closed", "err", err)
			return
		}

		msg, err := protocol.DecodeGameServerToLobby(raw)
		if err != nil {
			logger.Warn("dropping game server session on decode failure", "err", err)
			_ = conn.Close("protocol error")
			return
		}

		if err := s.handleGameServerMessage(ctx, serverID, msg, logger); err != nil {
			logger.Warn("dropping game server session", "err", err)
			_ = conn.Close("protocol error")
			return
		}
	}
}

func (s *Server) handleGameServerMessage(ctx context.Context, id broker.ServerID, msg protocol.Message, logger *slog.Logger) error {
	switch m := msg.(type) {
	case *protocol.Available:
		if err := s.broker.SetAvailable(id, m.Address); err != nil {
			return err
		}
		metrics.AvailableGameServers.Set(float64(s.broker.AvailableCount()))
		return nil
	case *protocol.Busy:
		if err := s.broker.SetBusy(id); err != nil {
			return err
		}
		metrics.AvailableGameServers.Set(float64(s.broker.AvailableCount()))
		return nil
	case *protocol.GameCreated:
		return s.handleGameCreated(ctx, id, m.Lobby, logger)
	default:
		return errors.New("unexpected message mid-session")
	}
}

// handleGameCreated completes a handoff: the game server has accepted the
// lobby, so its members are told where to connect
func (s *Server) handleGameCreated(ctx context.Context, id broker.ServerID, code model.LobbyCode, logger *slog.Logger) error {
	if err := s.broker.ConfirmAssignment(id, code); err != nil {
		return err
	}

	s.mu.Lock()
	start, ok := s.pending[code]
	delete(s.pending, code)
	s.mu.Unlock()

	if !ok || start.server != id {
		return model.ErrGameNotFound
	}

	lobby, err := s.lobbies.GetLobby(ctx, code)
	if err != nil {
		return err
	}

	s.sessions.broadcast(lobby.MemberIDs(), &protocol.GameStarted{Address: start.address})
	metrics.GamesStarted.Inc()
	logger.Info("game started", "lobby", code, "address", start.address)
	return nil
}

// cleanupGameSession handles a game server dropping out. An assignment
// caught mid-handoff fails back to the lobby members.
func (s *Server) cleanupGameSession(ctx context.Context, id broker.ServerID, logger *slog.Logger) {
	pendingLobby, hadPending := s.broker.Unregister(id)
	metrics.AvailableGameServers.Set(float64(s.broker.AvailableCount()))

	s.mu.Lock()
	delete(s.gameConns, id)
	s.mu.Unlock()

	if !hadPending {
		return
	}

	s.clearPending(pendingLobby)
	metrics.GameStartFailures.WithLabelValues("server_disconnected").Inc()

	if err := s.lobbies.MarkGameFailed(ctx, pendingLobby); err != nil {
		if !errors.Is(err, model.ErrLobbyNotFound) {
			logger.Warn("failed to reset lobby after server disconnect", "lobby", pendingLobby, "err", err)
		}
		return
	}

	lobby, err := s.lobbies.GetLobby(ctx, pendingLobby)
	if err != nil {
		return
	}
	s.sessions.broadcast(lobby.MemberIDs(), &protocol.GameStartFailed{Reason: "game server disconnected"})
	logger.Warn("handoff failed, lobby returned to waiting", "lobby", pendingLobby)
}
