package game

import "github.com/pokertutor/pokertutor/internal/deck"

// Kind distinguishes human seats from bot seats. Elimination of the human
// seat ends the game.
type Kind int

const (
	Human Kind = iota
	Bot
)

func (k Kind) String() string {
	if k == Bot {
		return "bot"
	}
	return "human"
}

// Player is per-seat mutable state, owned exclusively by Game. Eliminated
// players stay in the seat list and are only marked inactive.
type Player struct {
	Name      string
	Seat      int
	Kind      Kind
	Stack     int
	HoleCards []deck.Card
	HandBet   int // total contributed this hand, feeds side-pot tiers
	Active    bool
	AllIn     bool
	HandLabel string
}

func (p *Player) resetForHand() {
	p.HoleCards = p.HoleCards[:0]
	p.HandBet = 0
	p.Active = true
	p.AllIn = false
	p.HandLabel = ""
}

// addHoleCard panics on a third card: dealing is engine-internal, so a
// third card means corrupted hand setup.
func (p *Player) addHoleCard(c deck.Card) {
	if len(p.HoleCards) >= 2 {
		panic("game: player already has two hole cards")
	}
	p.HoleCards = append(p.HoleCards, c)
}

// placeBet moves up to amount from the stack, capped at what the player
// has. A player whose stack reaches zero is all-in. Returns the amount
// actually moved.
func (p *Player) placeBet(amount int) int {
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	p.HandBet += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
	return amount
}
