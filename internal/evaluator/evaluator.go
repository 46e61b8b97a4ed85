// Package evaluator ranks the best 5-card poker hand from 5-7 cards.
//
// Unlike table-based evaluators that map hands to opaque numeric ranks,
// this one returns the ordered best-five card list alongside the category,
// so callers can break ties positionally and describe the hand to players.
package evaluator

import (
	"sort"

	"github.com/pokertutor/pokertutor/internal/deck"
)

// Category represents the strength class of a 5-card hand. Higher values
// beat lower values.
type Category int

const (
	HighCard Category = iota + 1
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable hand description
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Evaluate returns the best 5-card hand from the union of hole and
// community cards. The returned cards are in comparison order: paired
// groups first, then kickers, each descending by rank. For the wheel
// (A-2-3-4-5) the ace is placed last so positional comparison ranks it
// as the lowest straight.
func Evaluate(hole, community []deck.Card) (Category, []deck.Card) {
	cards := make([]deck.Card, 0, len(hole)+len(community))
	cards = append(cards, hole...)
	cards = append(cards, community...)

	flush := flushCards(cards)
	if flush != nil {
		if sf := straightCards(suitedCards(cards, flush[0].Suit)); sf != nil {
			return StraightFlush, sf
		}
	}

	if quads := fourOfAKind(cards); quads != nil {
		return FourOfAKind, quads
	}

	if boat := fullHouse(cards); boat != nil {
		return FullHouse, boat
	}

	if flush != nil {
		return Flush, flush
	}

	if straight := straightCards(cards); straight != nil {
		return Straight, straight
	}

	if trips := threeOfAKind(cards); trips != nil {
		return ThreeOfAKind, trips
	}

	if pairs := twoPair(cards); pairs != nil {
		return TwoPair, pairs
	}

	if pair := onePair(cards); pair != nil {
		return Pair, pair
	}

	return HighCard, topByRank(cards, nil, 5)
}

// Compare compares two evaluated hands. It returns 1 if a wins, -1 if b
// wins and 0 on a genuine tie (split pot). Category decides first; on a
// category tie the best-five lists are compared position by position by
// rank. Suits never break ties.
func Compare(aCat Category, aBest []deck.Card, bCat Category, bBest []deck.Card) int {
	if aCat != bCat {
		if aCat > bCat {
			return 1
		}
		return -1
	}

	for i := 0; i < len(aBest) && i < len(bBest); i++ {
		if aBest[i].Rank != bBest[i].Rank {
			if aBest[i].Rank > bBest[i].Rank {
				return 1
			}
			return -1
		}
	}
	return 0
}

// flushCards returns the top five cards of any suit with five or more
// cards, descending by rank, or nil.
func flushCards(cards []deck.Card) []deck.Card {
	bySuit := make(map[deck.Suit][]deck.Card, 4)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	for _, suited := range bySuit {
		if len(suited) >= 5 {
			sortByRankDesc(suited)
			return suited[:5]
		}
	}
	return nil
}

func suitedCards(cards []deck.Card, suit deck.Suit) []deck.Card {
	var suited []deck.Card
	for _, c := range cards {
		if c.Suit == suit {
			suited = append(suited, c)
		}
	}
	return suited
}

// straightCards returns the highest 5-card straight in the given cards, or
// nil. Ranks {A,5,4,3,2} form the wheel, returned as 5-4-3-2-A.
func straightCards(cards []deck.Card) []deck.Card {
	byRank := make(map[deck.Rank]deck.Card)
	for _, c := range cards {
		if _, ok := byRank[c.Rank]; !ok {
			byRank[c.Rank] = c
		}
	}

	ranks := make([]deck.Rank, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	for i := 0; i+4 < len(ranks); i++ {
		if ranks[i]-ranks[i+4] == 4 {
			straight := make([]deck.Card, 5)
			for j := 0; j < 5; j++ {
				straight[j] = byRank[ranks[i+j]]
			}
			return straight
		}
	}

	// Wheel: ace plays low below the five.
	if _, ok := byRank[deck.Ace]; ok {
		wheel := make([]deck.Card, 0, 5)
		for r := deck.Five; r >= deck.Two; r-- {
			c, ok := byRank[r]
			if !ok {
				return nil
			}
			wheel = append(wheel, c)
		}
		return append(wheel, byRank[deck.Ace])
	}

	return nil
}

func fourOfAKind(cards []deck.Card) []deck.Card {
	rank, ok := highestRankWithCount(cards, 4, -1)
	if !ok {
		return nil
	}
	best := cardsOfRank(cards, rank, 4)
	return append(best, topByRank(cards, []deck.Rank{rank}, 1)...)
}

func fullHouse(cards []deck.Card) []deck.Card {
	trips, ok := highestRankWithAtLeast(cards, 3, -1)
	if !ok {
		return nil
	}
	pair, ok := highestRankWithAtLeast(cards, 2, trips)
	if !ok {
		return nil
	}
	return append(cardsOfRank(cards, trips, 3), cardsOfRank(cards, pair, 2)...)
}

func threeOfAKind(cards []deck.Card) []deck.Card {
	rank, ok := highestRankWithCount(cards, 3, -1)
	if !ok {
		return nil
	}
	best := cardsOfRank(cards, rank, 3)
	return append(best, topByRank(cards, []deck.Rank{rank}, 2)...)
}

func twoPair(cards []deck.Card) []deck.Card {
	high, ok := highestRankWithAtLeast(cards, 2, -1)
	if !ok {
		return nil
	}
	low, ok := highestRankWithAtLeast(cards, 2, high)
	if !ok {
		return nil
	}
	best := append(cardsOfRank(cards, high, 2), cardsOfRank(cards, low, 2)...)
	return append(best, topByRank(cards, []deck.Rank{high, low}, 1)...)
}

func onePair(cards []deck.Card) []deck.Card {
	rank, ok := highestRankWithAtLeast(cards, 2, -1)
	if !ok {
		return nil
	}
	best := cardsOfRank(cards, rank, 2)
	return append(best, topByRank(cards, []deck.Rank{rank}, 3)...)
}

// highestRankWithCount finds the highest rank appearing exactly n times,
// excluding the given rank (-1 for none).
func highestRankWithCount(cards []deck.Card, n int, except deck.Rank) (deck.Rank, bool) {
	counts := rankCounts(cards)
	for r := deck.Ace; r >= deck.Two; r-- {
		if r != except && counts[r] == n {
			return r, true
		}
	}
	return 0, false
}

// highestRankWithAtLeast finds the highest rank appearing n or more times,
// excluding the given rank (-1 for none).
func highestRankWithAtLeast(cards []deck.Card, n int, except deck.Rank) (deck.Rank, bool) {
	counts := rankCounts(cards)
	for r := deck.Ace; r >= deck.Two; r-- {
		if r != except && counts[r] >= n {
			return r, true
		}
	}
	return 0, false
}

func rankCounts(cards []deck.Card) map[deck.Rank]int {
	counts := make(map[deck.Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

func cardsOfRank(cards []deck.Card, rank deck.Rank, n int) []deck.Card {
	matched := make([]deck.Card, 0, n)
	for _, c := range cards {
		if c.Rank == rank {
			matched = append(matched, c)
			if len(matched) == n {
				break
			}
		}
	}
	return matched
}

// topByRank returns the n highest cards whose ranks are not excluded,
// descending by rank.
func topByRank(cards []deck.Card, exclude []deck.Rank, n int) []deck.Card {
	excluded := make(map[deck.Rank]bool, len(exclude))
	for _, r := range exclude {
		excluded[r] = true
	}

	remaining := make([]deck.Card, 0, len(cards))
	for _, c := range cards {
		if !excluded[c.Rank] {
			remaining = append(remaining, c)
		}
	}
	sortByRankDesc(remaining)

	if len(remaining) > n {
		remaining = remaining[:n]
	}
	return remaining
}

func sortByRankDesc(cards []deck.Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Rank > cards[j].Rank })
}
