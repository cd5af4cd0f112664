package lobbyserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/fairway/internal/metrics"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/protocol"
	"github.com/mcoot/fairway/internal/transport"
)

// runUserSession owns one user connection from hello to disconnect.
// It runs on the upgrade handler's goroutine and returns when the
// connection drops or the client violates the protocol.
func (s *Server) runUserSession(conn *transport.Conn) {
	ctx := context.Background()

	session, err := s.establishSession(ctx, conn)
	if err != nil {
		s.logger.Info("user session rejected", "err", err)
		_ = conn.Close("authentication failed")
		return
	}

	logger := s.logger.With("player", session.player)
	logger.Info("user session established")
	metrics.ConnectedUsers.Inc()

	defer func() {
		metrics.ConnectedUsers.Dec()
		if s.sessions.remove(session) {
			s.handleUserDisconnect(ctx, session, logger)
		}
	}()

	for {
		raw, err := conn.ReadRaw()
		if err != nil {
			logger.Info("user session closed", "err", err)
			return
		}

		msg, err := protocol.DecodeUserClient(raw)
		if err != nil {
			logger.Warn("dropping user session on decode failure", "err", err)
			_ = conn.Close("protocol error")
			return
		}

		if err := s.handleUserMessage(ctx, session, msg, logger); err != nil {
			logger.Warn("dropping user session", "err", err)
			_ = conn.Close("protocol error")
			return
		}
	}
}

// establishSession performs the hello exchange. A hello with no identity
// issues a fresh one and returns the plaintext secret once; a returning
// client must present a matching identity and credential.
func (s *Server) establishSession(ctx context.Context, conn *transport.Conn) (*userSession, error) {
	raw, err := conn.ReadRaw()
	if err != nil {
		return nil, err
	}

	msg, err := protocol.DecodeUserClient(raw)
	if err != nil {
		return nil, err
	}

	hello, ok := msg.(*protocol.UserHello)
	if !ok {
		return nil, errors.New("expected hello as first message")
	}

	var session *userSession
	if hello.PlayerID == "" {
		identity, err := s.credentials.IssueIdentity(ctx)
		if err != nil {
			return nil, err
		}
		session = &userSession{
			player:     identity.Player.ID,
			credential: identity.Secret,
			conn:       conn,
		}
		if err := conn.Send(&protocol.LobbyHello{
			PlayerID:   identity.Player.ID,
			Credential: identity.Secret,
		}); err != nil {
			return nil, err
		}
	} else {
		if err := s.credentials.Verify(ctx, hello.PlayerID, hello.Credential); err != nil {
			return nil, err
		}
		session = &userSession{
			player:     hello.PlayerID,
			credential: hello.Credential,
			conn:       conn,
		}
		if err := conn.Send(&protocol.LobbyHello{PlayerID: hello.PlayerID}); err != nil {
			return nil, err
		}
	}

	if prev := s.sessions.add(session); prev != nil {
		_ = prev.conn.Close("superseded by reconnect")
	}
	return session, nil
}

func (s *Server) handleUserMessage(ctx context.Context, session *userSession, msg protocol.Message, logger *slog.Logger) error {
	switch m := msg.(type) {
	case *protocol.CreateLobby:
		return s.handleCreateLobby(ctx, session)
	case *protocol.ListLobbies:
		return s.handleListLobbies(ctx, session)
	case *protocol.JoinLobby:
		return s.handleJoinLobby(ctx, session, m.Lobby)
	case *protocol.LeaveLobby:
		return s.handleLeaveLobby(ctx, session)
	case *protocol.StartGame:
		return s.handleStartGame(ctx, session, logger)
	default:
		return errors.New("unexpected message mid-session")
	}
}

func (s *Server) handleCreateLobby(ctx context.Context, session *userSession) error {
	lobby, err := s.lobbies.CreateLobby(ctx, session.player)
	if err != nil {
		return err
	}
	metrics.OpenLobbies.Inc()
	return session.conn.Send(&protocol.LobbyCreated{Lobby: lobby.Code})
}

func (s *Server) handleListLobbies(ctx context.Context, session *userSession) error {
	lobbies, err := s.lobbies.ListLobbies(ctx)
	if err != nil {
		return err
	}

	codes := make([]model.LobbyCode, 0, len(lobbies))
	for _, l := range lobbies {
		codes = append(codes, l.Code)
	}
	return session.conn.Send(&protocol.AvailableLobbies{Lobbies: codes})
}

func (s *Server) handleJoinLobby(ctx context.Context, session *userSession, code model.LobbyCode) error {
	lobby, err := s.lobbies.JoinLobby(ctx, code, session.player)
	switch {
	case errors.Is(err, model.ErrLobbyNotFound),
		errors.Is(err, model.ErrAlreadyInLobby),
		errors.Is(err, model.ErrGameInProgress):
		// Recoverable: the session stays open to try another code
		return session.conn.Send(&protocol.JoinFailed{Lobby: code, Reason: err.Error()})
	case err != nil:
		return err
	}

	for _, member := range lobby.MemberIDs() {
		if member != session.player {
			s.sessions.sendTo(member, &protocol.PlayerJoined{Lobby: lobby.Code, Player: session.player})
		}
	}
	return session.conn.Send(&protocol.LobbyJoined{Lobby: lobby.Code, Members: lobby.MemberIDs()})
}

func (s *Server) handleLeaveLobby(ctx context.Context, session *userSession) error {
	current, err := s.lobbies.GetPlayerLobby(ctx, session.player)
	if errors.Is(err, model.ErrNotInLobby) {
		return nil
	}
	if err != nil {
		return err
	}

	remaining, err := s.lobbies.LeaveLobby(ctx, current.Code, session.player)
	if err != nil {
		return err
	}
	if remaining == nil {
		metrics.OpenLobbies.Dec()
		return nil
	}

	s.sessions.broadcast(remaining.MemberIDs(), &protocol.PlayerLeft{Lobby: remaining.Code, Player: session.player})
	return nil
}

func (s *Server) handleStartGame(ctx context.Context, session *userSession, logger *slog.Logger) error {
	lobby, err := s.lobbies.GetPlayerLobby(ctx, session.player)
	if errors.Is(err, model.ErrNotInLobby) {
		return session.conn.Send(&protocol.GameStartFailed{Reason: "not in a lobby"})
	}
	if err != nil {
		return err
	}

	if _, err := s.lobbies.RequireOwner(ctx, lobby.Code, session.player); err != nil {
		if errors.Is(err, model.ErrNotOwner) {
			return session.conn.Send(&protocol.GameStartFailed{Reason: "only the lobby owner can start the game"})
		}
		return err
	}

	reg, err := s.broker.Assign(lobby.Code)
	if errors.Is(err, model.ErrNoCapacity) {
		metrics.GameStartFailures.WithLabelValues("no_capacity").Inc()
		return session.conn.Send(&protocol.GameStartFailed{Reason: "no game server available"})
	}
	if err != nil {
		return err
	}

	createGame := &protocol.CreateGame{Lobby: lobby.Code}
	for _, member := range lobby.Members {
		memberSession, ok := s.sessions.get(member.PlayerID)
		if !ok {
			// Disconnect handling should have removed them already; skip
			logger.Warn("lobby member has no live session at start", "member", member.PlayerID)
			continue
		}
		createGame.Players = append(createGame.Players, protocol.GamePlayer{
			ID:         member.PlayerID,
			Credential: memberSession.credential,
		})
	}

	s.mu.Lock()
	gameConn, ok := s.gameConns[reg.ID]
	if ok {
		s.pending[lobby.Code] = pendingStart{server: reg.ID, address: reg.Address}
	}
	s.mu.Unlock()

	sendErr := model.ErrServerNotFound
	if ok {
		sendErr = gameConn.Send(createGame)
	}
	if sendErr != nil {
		logger.Warn("game handoff send failed", "server", reg.ID, "err", sendErr)
		s.broker.ReleaseAssignment(reg.ID)
		s.clearPending(lobby.Code)
		metrics.GameStartFailures.WithLabelValues("handoff_failed").Inc()
		return session.conn.Send(&protocol.GameStartFailed{Reason: "game server unavailable"})
	}

	if err := s.lobbies.MarkInGame(ctx, lobby.Code); err != nil {
		return err
	}

	logger.Info("game handoff sent", "lobby", lobby.Code, "server", reg.ID)
	return nil
}

// handleUserDisconnect treats a dropped connection as an implicit leave
func (s *Server) handleUserDisconnect(ctx context.Context, session *userSession, logger *slog.Logger) {
	current, err := s.lobbies.GetPlayerLobby(ctx, session.player)
	if err != nil {
		if !errors.Is(err, model.ErrNotInLobby) {
			logger.Warn("disconnect cleanup failed", "err", err)
		}
		return
	}

	remaining, err := s.lobbies.LeaveLobby(ctx, current.Code, session.player)
	if err != nil {
		logger.Warn("disconnect cleanup failed", "err", err)
		return
	}
	if remaining == nil {
		metrics.OpenLobbies.Dec()
		return
	}
	s.sessions.broadcast(remaining.MemberIDs(), &protocol.PlayerLeft{Lobby: remaining.Code, Player: session.player})
}

func (s *Server) clearPending(code model.LobbyCode) {
	s.mu.Lock()
	delete(s.pending, code)
	s.mu.Unlock()
}
