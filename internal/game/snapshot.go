package game

import "github.com/pokertutor/pokertutor/internal/deck"

// PlayerSnapshot is the read-only projection of one seat.
type PlayerSnapshot struct {
	Name       string      `json:"name"`
	Seat       int         `json:"seat"`
	Kind       string      `json:"kind"`
	Stack      int         `json:"stack"`
	RoundBet   int         `json:"roundBet"`
	HandBet    int         `json:"handBet"`
	Active     bool        `json:"active"`
	AllIn      bool        `json:"allIn"`
	Eliminated bool        `json:"eliminated"`
	HoleCards  []deck.Card `json:"holeCards,omitempty"`
	HandLabel  string      `json:"handLabel,omitempty"`
	Position   string      `json:"position,omitempty"`
}

// Snapshot is a read-only projection of the game, sufficient to render a
// table. The transport layer decides what to redact per recipient.
type Snapshot struct {
	CommunityCards     []deck.Card      `json:"communityCards"`
	Pot                int              `json:"pot"`
	SidePots           []SidePot        `json:"sidePots,omitempty"`
	Street             string           `json:"street"`
	CurrentBet         int              `json:"currentBet"`
	Players            []PlayerSnapshot `json:"players"`
	DealerSeat         int              `json:"dealerSeat"`
	SmallBlindSeat     int              `json:"smallBlindSeat"`
	BigBlindSeat       int              `json:"bigBlindSeat"`
	ActiveSeat         int              `json:"activeSeat"`
	HandInProgress     bool             `json:"handInProgress"`
	WaitingForNextHand bool             `json:"waitingForNextHand"`
	GameOver           bool             `json:"gameOver"`
	Showdown           []Winning        `json:"showdown,omitempty"`
	History            []StreetHistory  `json:"history,omitempty"`
}

// ToCall returns what a seat must add to match the current bet.
func (s Snapshot) ToCall(seat int) int {
	for _, p := range s.Players {
		if p.Seat == seat {
			return s.CurrentBet - p.RoundBet
		}
	}
	return 0
}

// Snapshot projects the current state. It never mutates the game; side
// pots shown mid-hand are computed on the fly from current contributions.
func (g *Game) Snapshot() Snapshot {
	board := make([]deck.Card, len(g.communityCards))
	copy(board, g.communityCards)

	players := make([]PlayerSnapshot, len(g.players))
	for seat, p := range g.players {
		holeCards := make([]deck.Card, len(p.HoleCards))
		copy(holeCards, p.HoleCards)

		players[seat] = PlayerSnapshot{
			Name:       p.Name,
			Seat:       seat,
			Kind:       p.Kind.String(),
			Stack:      p.Stack,
			RoundBet:   g.roundBets[seat],
			HandBet:    p.HandBet,
			Active:     p.Active,
			AllIn:      p.AllIn,
			Eliminated: g.eliminated[seat],
			HoleCards:  holeCards,
			HandLabel:  p.HandLabel,
			Position:   PositionLabel(g.dealerPos, len(g.players), seat),
		}
	}

	var sidePots []SidePot
	if g.handInProgress && g.anyActiveAllIn() {
		sidePots = computeSidePots(g.players)
	}

	history := make([]StreetHistory, len(g.history))
	copy(history, g.history)

	showdown := make([]Winning, len(g.lastShowdown))
	copy(showdown, g.lastShowdown)

	return Snapshot{
		CommunityCards:     board,
		Pot:                g.pot,
		SidePots:           sidePots,
		Street:             g.street.String(),
		CurrentBet:         g.currentBet,
		Players:            players,
		DealerSeat:         g.dealerPos,
		SmallBlindSeat:     g.sbPos,
		BigBlindSeat:       g.bbPos,
		ActiveSeat:         g.activeSeat,
		HandInProgress:     g.handInProgress,
		WaitingForNextHand: g.waitingForNextHand,
		GameOver:           g.gameOver,
		Showdown:           showdown,
		History:            history,
	}
}
