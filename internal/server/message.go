package server

import (
	"encoding/json"
	"time"

	"github.com/pokertutor/pokertutor/internal/game"
)

// MessageType identifies the payload carried in a Message envelope.
type MessageType string

const (
	// Client → Server
	MessageTypeStartGame    MessageType = "start_game"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeNextHand     MessageType = "next_hand"

	// Server → Client
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeError        MessageType = "error"
	MessageTypeTutorComment MessageType = "tutor_comment"
)

func (t MessageType) String() string { return string(t) }

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type StartGameData struct {
	PlayerName string `json:"playerName"`
}

type PlayerActionData struct {
	GameID string `json:"gameId"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type NextHandData struct {
	GameID string `json:"gameId"`
}

// Server → Client Messages

type GameStateData struct {
	GameID string        `json:"gameId"`
	Seat   int           `json:"seat"`
	State  game.Snapshot `json:"state"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TutorCommentData struct {
	GameID string `json:"gameId"`
	Text   string `json:"text"`
}

// RedactSnapshot strips hole cards the viewer is not entitled to see: the
// viewer's own cards are always included, everyone else's only once the
// hand has reached showdown, and folded seats never reveal.
func RedactSnapshot(snap game.Snapshot, viewerSeat int) game.Snapshot {
	showdown := snap.WaitingForNextHand || snap.GameOver

	players := make([]game.PlayerSnapshot, len(snap.Players))
	copy(players, snap.Players)
	for i := range players {
		if players[i].Seat == viewerSeat {
			continue
		}
		if showdown && players[i].Active {
			continue
		}
		players[i].HoleCards = nil
		players[i].HandLabel = ""
	}

	snap.Players = players
	return snap
}
