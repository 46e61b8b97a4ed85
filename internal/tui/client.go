package tui

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/pokertutor/pokertutor/internal/server"
)

// Messages delivered into the Bubble Tea program by the read loop.

type StateMsg server.GameStateData

type TutorMsg server.TutorCommentData

type ServerErrorMsg server.ErrorData

type DisconnectMsg struct{ Err error }

// Client is the WebSocket connection to the poker server. Reads happen on
// the Listen goroutine; writes only ever come from the UI loop, so neither
// side needs extra locking.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger
}

// Dial connects to the server's /ws endpoint.
func Dial(ctx context.Context, url string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Client{
		conn:   conn,
		logger: logger.WithPrefix("client"),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Listen reads server messages and forwards them as Bubble Tea messages
// until the connection drops. Run it on its own goroutine with
// program.Send.
func (c *Client) Listen(send func(tea.Msg)) {
	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			send(DisconnectMsg{Err: err})
			return
		}

		switch msg.Type {
		case server.MessageTypeGameState:
			var data server.GameStateData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.logger.Error("Failed to parse game state", "error", err)
				continue
			}
			send(StateMsg(data))

		case server.MessageTypeTutorComment:
			var data server.TutorCommentData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.logger.Error("Failed to parse tutor comment", "error", err)
				continue
			}
			send(TutorMsg(data))

		case server.MessageTypeError:
			var data server.ErrorData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.logger.Error("Failed to parse error", "error", err)
				continue
			}
			send(ServerErrorMsg(data))

		default:
			c.logger.Debug("Ignoring message", "type", msg.Type)
		}
	}
}

// StartGame asks the server to seat us and deal the first hand.
func (c *Client) StartGame(playerName string) error {
	return c.write(server.MessageTypeStartGame, server.StartGameData{
		PlayerName: playerName,
	})
}

// Action submits a betting action for the current hand.
func (c *Client) Action(gameID, action string, amount int) error {
	return c.write(server.MessageTypePlayerAction, server.PlayerActionData{
		GameID: gameID,
		Action: action,
		Amount: amount,
	})
}

// NextHand acknowledges a finished hand and deals the next one.
func (c *Client) NextHand(gameID string) error {
	return c.write(server.MessageTypeNextHand, server.NextHandData{
		GameID: gameID,
	})
}

func (c *Client) write(messageType server.MessageType, data interface{}) error {
	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}
