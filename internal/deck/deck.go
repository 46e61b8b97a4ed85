package deck

import (
	rand "math/rand/v2"

	"github.com/pokertutor/pokertutor/internal/randutil"
)

// Deck represents a shuffled, depletable sequence of the 52 unique cards.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a shuffled 52-card deck.
func New() *Deck {
	return NewWithRNG(randutil.NewFromTime())
}

// NewWithRNG creates a shuffled deck using the provided RNG, for
// deterministic dealing in tests.
func NewWithRNG(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.Reset()
	return d
}

// Reset restores the deck to the full 52-card set and shuffles it.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.shuffle()
}

func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card. Drawing from an empty deck is a
// precondition violation: a full hand consumes at most 2×players+5 cards,
// so an empty draw means corrupted dealing state.
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		panic("deck: draw from empty deck")
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
