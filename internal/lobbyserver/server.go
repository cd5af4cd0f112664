// Package lobbyserver serves the lobby side of the system: user sessions
// (identity, lobby directory, game start requests) and game server
// registrations, bridged by the broker.
package lobbyserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/services/broker"
	"github.com/mcoot/fairway/internal/services/credential"
	"github.com/mcoot/fairway/internal/services/lobby"
	"github.com/mcoot/fairway/internal/transport"
)

// pendingStart tracks an assignment between CreateGame and GameCreated
type pendingStart struct {
	server  broker.ServerID
	address string
}

// Server is the lobby server's connection layer
type Server struct {
	logger      *slog.Logger
	clock       clock.Clock
	credentials credential.ControllerInterface
	lobbies     lobby.ControllerInterface
	broker      broker.ControllerInterface

	sessions *sessionRegistry

	mu        sync.Mutex
	gameConns map[broker.ServerID]*transport.Conn
	pending   map[model.LobbyCode]pendingStart
}

// NewServer assembles the connection layer over the given services
func NewServer(
	logger *slog.Logger,
	clk clock.Clock,
	credentials credential.ControllerInterface,
	lobbies lobby.ControllerInterface,
	brk broker.ControllerInterface,
) *Server {
	return &Server{
		logger:      logger,
		clock:       clk,
		credentials: credentials,
		lobbies:     lobbies,
		broker:      brk,
		sessions:    newSessionRegistry(),
		gameConns:   make(map[broker.ServerID]*transport.Conn),
		pending:     make(map[model.LobbyCode]pendingStart),
	}
}

// Router returns the HTTP routes: user websocket, game server websocket,
// health, and metrics
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleUserWS)
	r.HandleFunc("/ws/game", s.handleGameWS)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleUserWS(w http.ResponseWriter, r *http.Request) {
	ws, err := transport.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.runUserSession(transport.NewConn(ws))
}

func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	ws, err := transport.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.runGameSession(transport.NewConn(ws))
}
