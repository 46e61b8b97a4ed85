package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/pokertutor/pokertutor/internal/game"
	"github.com/pokertutor/pokertutor/internal/tutor"
)

const tutorTimeout = 60 * time.Second

// session owns one engine instance. All game mutations go through mu, so
// the engine itself never sees concurrent callers.
type session struct {
	id         string
	humanSeat  int
	strategies map[int]string // bot seat -> strategy
	botDelay   time.Duration

	mu   sync.Mutex
	game *game.Game

	// analyzed and botPending are guarded by mu too: they sequence the
	// tutor call and the bot timer against game mutations.
	analyzed   bool
	botPending bool

	connsMu sync.RWMutex
	conns   map[*Connection]bool

	logger *log.Logger
	clock  quartz.Clock
	tutor  *tutor.Client
}

// newSession seats the human at seat 0 and the configured bots after, then
// deals the first hand.
func newSession(id string, cfg *Config, playerName string, rng *rand.Rand,
	logger *log.Logger, clock quartz.Clock, tut *tutor.Client) (*session, error) {

	players := []game.PlayerConfig{
		{Name: playerName, Stack: cfg.Game.StartingStack, Kind: game.Human},
	}
	strategies := make(map[int]string, len(cfg.Bots))
	for i, bot := range cfg.Bots {
		players = append(players, game.PlayerConfig{
			Name:  bot.Name,
			Stack: bot.Stack,
			Kind:  game.Bot,
		})
		strategies[i+1] = bot.Strategy
	}

	g, err := game.New(game.Config{
		Players:    players,
		SmallBlind: cfg.Game.SmallBlind,
		BigBlind:   cfg.Game.BigBlind,
	}, game.WithRNG(rng))
	if err != nil {
		return nil, err
	}
	if err := g.StartHand(); err != nil {
		return nil, err
	}

	return &session{
		id:         id,
		humanSeat:  0,
		strategies: strategies,
		botDelay:   time.Duration(cfg.Game.BotThinkMS) * time.Millisecond,
		game:       g,
		conns:      make(map[*Connection]bool),
		logger:     logger.WithPrefix("session").With("game", id),
		clock:      clock,
		tutor:      tut,
	}, nil
}

func (s *session) attach(conn *Connection) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = true
}

func (s *session) detach(conn *Connection) int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
	return len(s.conns)
}

func (s *session) snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// handleAction applies a human action. Bot turns are rejected so a client
// cannot act for the table.
func (s *session) handleAction(conn *Connection, data PlayerActionData) {
	kind, err := parseActionKind(data.Action)
	if err != nil {
		conn.sendError("unknown_action", "Unknown action: "+data.Action)
		return
	}

	s.mu.Lock()
	snap := s.game.Snapshot()
	if !snap.HandInProgress || snap.WaitingForNextHand {
		s.mu.Unlock()
		conn.sendError("no_hand", "No hand in progress")
		return
	}
	if snap.ActiveSeat != s.humanSeat {
		s.mu.Unlock()
		conn.sendError("not_your_turn", "It is not your turn to act")
		return
	}
	err = s.game.ApplyAction(kind, data.Amount)
	s.mu.Unlock()

	if err != nil {
		conn.sendError(actionErrorCode(err), err.Error())
		return
	}

	s.afterMutation()
}

// handleNextHand advances past a finished hand on the human's request.
func (s *session) handleNextHand(conn *Connection) {
	s.mu.Lock()
	err := s.game.StartNextHand()
	if err == nil {
		s.analyzed = false
	}
	s.mu.Unlock()

	if err != nil {
		conn.sendError(actionErrorCode(err), err.Error())
		return
	}

	s.afterMutation()
}

// afterMutation runs after every successful game mutation: broadcast the
// new state, kick off tutor analysis when a showdown just resolved, and
// schedule the next bot action if a bot is due to act.
func (s *session) afterMutation() {
	snap := s.snapshot()
	s.broadcastState(snap)

	if snap.WaitingForNextHand && len(snap.Showdown) > 0 {
		s.maybeAnalyze(snap)
	}

	s.scheduleBot(snap)
}

// broadcastState sends the snapshot to every attached connection, redacted
// for that connection's seat.
func (s *session) broadcastState(snap game.Snapshot) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()

	for conn := range s.conns {
		seat := conn.GetSeat()
		msg, err := NewMessage(MessageTypeGameState, GameStateData{
			GameID: s.id,
			Seat:   seat,
			State:  RedactSnapshot(snap, seat),
		})
		if err != nil {
			s.logger.Error("Failed to encode game state", "error", err)
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send game state", "error", err)
		}
	}
}

func (s *session) broadcast(msg *Message) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()

	for conn := range s.conns {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message", "error", err, "type", msg.Type)
		}
	}
}

// scheduleBot arms a think-delay timer when the seat to act is a bot. The
// timer re-checks the game under the lock before acting: the state may
// have moved on by the time it fires.
func (s *session) scheduleBot(snap game.Snapshot) {
	if !snap.HandInProgress || snap.WaitingForNextHand || snap.GameOver {
		return
	}
	strategy, isBot := s.strategies[snap.ActiveSeat]
	if !isBot {
		return
	}

	s.mu.Lock()
	if s.botPending {
		s.mu.Unlock()
		return
	}
	s.botPending = true
	s.mu.Unlock()

	seat := snap.ActiveSeat
	s.clock.AfterFunc(s.botDelay, func() {
		s.applyBot(seat, strategy)
	})
}

func (s *session) applyBot(seat int, strategy string) {
	s.mu.Lock()
	s.botPending = false

	snap := s.game.Snapshot()
	if !snap.HandInProgress || snap.WaitingForNextHand || snap.ActiveSeat != seat {
		s.mu.Unlock()
		return
	}

	kind, amount := botAction(strategy, snap, seat)
	err := s.game.ApplyAction(kind, amount)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Bot action rejected", "seat", seat, "error", err)
		return
	}
	s.logger.Debug("Bot acted", "seat", seat, "action", kind, "amount", amount)

	s.afterMutation()
}

// maybeAnalyze asks the tutor to review the hand that just ended. At most
// one analysis per hand, and none when the tutor is disabled.
func (s *session) maybeAnalyze(snap game.Snapshot) {
	if !s.tutor.Enabled() {
		return
	}

	s.mu.Lock()
	if s.analyzed {
		s.mu.Unlock()
		return
	}
	s.analyzed = true
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tutorTimeout)
		defer cancel()

		text, err := s.tutor.AnalyzeHand(ctx, snap)
		if err != nil {
			s.logger.Error("Tutor analysis failed", "error", err)
			return
		}

		msg, err := NewMessage(MessageTypeTutorComment, TutorCommentData{
			GameID: s.id,
			Text:   text,
		})
		if err != nil {
			s.logger.Error("Failed to encode tutor comment", "error", err)
			return
		}
		s.broadcast(msg)
	}()
}

func parseActionKind(action string) (game.ActionKind, error) {
	switch action {
	case "fold":
		return game.ActionFold, nil
	case "check", "call":
		return game.ActionCall, nil
	case "raise":
		return game.ActionRaise, nil
	}
	return 0, fmt.Errorf("%w: %s", game.ErrUnknownAction, action)
}

func actionErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRaiseTooSmall):
		return "raise_too_small"
	case errors.Is(err, game.ErrNoHandInProgress):
		return "no_hand"
	case errors.Is(err, game.ErrHandInProgress):
		return "hand_in_progress"
	case errors.Is(err, game.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, game.ErrGameOver):
		return "game_over"
	}
	return "action_failed"
}
