package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/pokertutor/pokertutor/internal/gameid"
	"github.com/pokertutor/pokertutor/internal/randutil"
	"github.com/pokertutor/pokertutor/internal/tutor"
	"golang.org/x/sync/errgroup"
)

// Server accepts WebSocket clients and hosts one game session per client.
// A session lives as long as a connection is attached to it.
type Server struct {
	cfg         *Config
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc

	clock quartz.Clock
	seed  int64
	tutor *tutor.Client

	sessionsMu sync.RWMutex
	sessions   map[string]*session
}

// NewServer creates a new WebSocket server. A non-zero seed makes every
// session's shuffle deterministic, for tests; zero seeds from the clock.
func NewServer(cfg *Config, logger *log.Logger, seed int64, clock quartz.Clock) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	var tut *tutor.Client
	if cfg.Tutor != nil {
		tut = tutor.New(tutor.Config{
			APIKey:  cfg.Tutor.APIKey,
			BaseURL: cfg.Tutor.BaseURL,
			Model:   cfg.Tutor.Model,
			Referer: cfg.Tutor.Referer,
		}, logger)
	}

	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		clock:       clock,
		seed:        seed,
		tutor:       tut,
		sessions:    make(map[string]*session),
	}
}

// Start starts the WebSocket server and blocks until it fails or Stop is
// called.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.cfg.Address(), Handler: mux}

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	s.logger.Info("Starting WebSocket server", "addr", s.cfg.Address())
	return g.Wait()
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()

			s.dropFromSession(conn)
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// dropFromSession detaches a closed connection from its session and tears
// the session down once nothing is attached to it.
func (s *Server) dropFromSession(conn *Connection) {
	gameID := conn.GetGame()
	if gameID == "" {
		return
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[gameID]
	if !ok {
		return
	}
	if remaining := sess.detach(conn); remaining == 0 {
		delete(s.sessions, gameID)
		s.logger.Info("Session ended", "game", gameID)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleStartGame creates a fresh session for the client: the human in
// seat 0, the configured bots after, first hand already dealt.
func (s *Server) handleStartGame(conn *Connection, data StartGameData) {
	if data.PlayerName == "" {
		conn.sendError("invalid_name", "Player name required")
		return
	}
	if conn.GetGame() != "" {
		conn.sendError("already_in_game", "Connection already has a game")
		return
	}

	id := gameid.Generate()
	sess, err := newSession(id, s.cfg, data.PlayerName, s.sessionRNG(),
		s.logger, s.clock, s.tutor)
	if err != nil {
		conn.sendError("start_failed", err.Error())
		return
	}

	s.sessionsMu.Lock()
	s.sessions[id] = sess
	s.sessionsMu.Unlock()

	conn.SetGame(id, sess.humanSeat)
	sess.attach(conn)
	s.logger.Info("Game started", "game", id, "player", data.PlayerName,
		"bots", len(s.cfg.Bots))

	sess.afterMutation()
}

func (s *Server) handlePlayerAction(conn *Connection, data PlayerActionData) {
	sess := s.sessionFor(conn, data.GameID)
	if sess == nil {
		return
	}
	sess.handleAction(conn, data)
}

func (s *Server) handleNextHand(conn *Connection, data NextHandData) {
	sess := s.sessionFor(conn, data.GameID)
	if sess == nil {
		return
	}
	sess.handleNextHand(conn)
}

// sessionFor resolves the session a message targets, preferring the
// explicit game ID and falling back to the connection's own game.
func (s *Server) sessionFor(conn *Connection, gameID string) *session {
	if gameID == "" {
		gameID = conn.GetGame()
	}
	if gameID == "" {
		conn.sendError("no_game", "Start a game first")
		return nil
	}

	s.sessionsMu.RLock()
	sess, ok := s.sessions[gameID]
	s.sessionsMu.RUnlock()
	if !ok {
		conn.sendError("game_not_found", "Unknown game: "+gameID)
		return nil
	}
	if sess.id != conn.GetGame() {
		conn.sendError("game_not_found", "Connection is not in game: "+gameID)
		return nil
	}
	return sess
}

func (s *Server) sessionRNG() *rand.Rand {
	if s.seed != 0 {
		return randutil.New(s.seed)
	}
	return randutil.NewFromTime()
}

// SessionCount reports the number of live sessions, for health reporting
// and tests.
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}
