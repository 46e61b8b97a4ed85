package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func startTestServer(t *testing.T) (*Server, string) {
	return startTestServerWith(t, nil)
}

func startTestServerWith(t *testing.T, mutate func(*Config)) (*Server, string) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Game.BotThinkMS = 1 // keep bot turns fast under the real clock
	if mutate != nil {
		mutate(cfg)
	}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())

	srv := NewServer(cfg, log.New(io.Discard), 42, quartz.NewReal())
	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop() })

	// Wait for the HTTP listener to come up.
	healthURL := fmt.Sprintf("http://%s/health", cfg.Address())
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	return srv, fmt.Sprintf("ws://%s/ws", cfg.Address())
}

func wsSend(t *testing.T, conn *websocket.Conn, messageType MessageType, data interface{}) {
	t.Helper()
	msg, err := NewMessage(messageType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// wsReadUntil reads messages until one of the wanted type arrives,
// failing the test on timeout. Other message types are skipped.
func wsReadUntil(t *testing.T, conn *websocket.Conn, want MessageType) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return &msg
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := startTestServer(t)
	assert.Equal(t, 0, srv.SessionCount())
}

func TestStartGameDealsFirstHand(t *testing.T) {
	t.Parallel()

	srv, url := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	wsSend(t, conn, MessageTypeStartGame, StartGameData{PlayerName: "tester"})

	msg := wsReadUntil(t, conn, MessageTypeGameState)
	var state GameStateData
	require.NoError(t, json.Unmarshal(msg.Data, &state))

	assert.NotEmpty(t, state.GameID)
	assert.Equal(t, 0, state.Seat)
	require.Len(t, state.State.Players, 3)
	assert.True(t, state.State.HandInProgress)

	// Redaction: our hole cards arrive, the bots' do not.
	assert.Len(t, state.State.Players[0].HoleCards, 2)
	assert.Empty(t, state.State.Players[1].HoleCards)
	assert.Empty(t, state.State.Players[2].HoleCards)

	assert.Equal(t, 1, srv.SessionCount())
}

func TestStartGameRequiresName(t *testing.T) {
	t.Parallel()

	_, url := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	wsSend(t, conn, MessageTypeStartGame, StartGameData{})

	msg := wsReadUntil(t, conn, MessageTypeError)
	var errData ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &errData))
	assert.Equal(t, "invalid_name", errData.Code)
}

func TestActionBeforeGameRejected(t *testing.T) {
	t.Parallel()

	_, url := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	wsSend(t, conn, MessageTypePlayerAction, PlayerActionData{Action: "call"})

	msg := wsReadUntil(t, conn, MessageTypeError)
	var errData ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &errData))
	assert.Equal(t, "no_game", errData.Code)
}

// TestFullHandOverWebSocket calls every human turn until the hand
// resolves, with the bots acting on their own timers.
func TestFullHandOverWebSocket(t *testing.T) {
	t.Parallel()

	_, url := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	wsSend(t, conn, MessageTypeStartGame, StartGameData{PlayerName: "tester"})

	var gameID string
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		msg := wsReadUntil(t, conn, MessageTypeGameState)
		var state GameStateData
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		gameID = state.GameID

		if state.State.WaitingForNextHand {
			// Hand is done; every active seat's cards are visible now.
			require.NotEmpty(t, state.State.Showdown)
			for _, p := range state.State.Players {
				if p.Active {
					assert.Len(t, p.HoleCards, 2, "seat %d hidden at showdown", p.Seat)
				}
			}

			// Asking for the next hand deals again.
			wsSend(t, conn, MessageTypeNextHand, NextHandData{GameID: gameID})
			next := wsReadUntil(t, conn, MessageTypeGameState)
			var nextState GameStateData
			require.NoError(t, json.Unmarshal(next.Data, &nextState))
			assert.True(t, nextState.State.HandInProgress || nextState.State.GameOver)
			return
		}

		if state.State.HandInProgress && state.State.ActiveSeat == state.Seat {
			wsSend(t, conn, MessageTypePlayerAction, PlayerActionData{
				GameID: gameID,
				Action: "call",
			})
		}
	}
	t.Fatal("hand never resolved")
}

func TestOutOfTurnActionRejected(t *testing.T) {
	t.Parallel()

	// Slow bots: after the human's call the acting bot "thinks" for a
	// minute, leaving a stable window where it is not our turn.
	_, url := startTestServerWith(t, func(cfg *Config) {
		cfg.Game.BotThinkMS = 60000
	})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	wsSend(t, conn, MessageTypeStartGame, StartGameData{PlayerName: "tester"})

	// Three-handed the human has the button and acts first preflop.
	msg := wsReadUntil(t, conn, MessageTypeGameState)
	var state GameStateData
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	require.Equal(t, state.Seat, state.State.ActiveSeat)

	wsSend(t, conn, MessageTypePlayerAction, PlayerActionData{
		GameID: state.GameID,
		Action: "call",
	})

	msg = wsReadUntil(t, conn, MessageTypeGameState)
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	require.NotEqual(t, state.Seat, state.State.ActiveSeat)

	wsSend(t, conn, MessageTypePlayerAction, PlayerActionData{
		GameID: state.GameID,
		Action: "call",
	})

	errMsg := wsReadUntil(t, conn, MessageTypeError)
	var errData ErrorData
	require.NoError(t, json.Unmarshal(errMsg.Data, &errData))
	assert.Equal(t, "not_your_turn", errData.Code)
}
