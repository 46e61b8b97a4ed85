// Package game implements the hold'em betting engine: the per-hand street
// state machine, pot and side-pot accounting, and showdown resolution.
//
// The engine is single-threaded and synchronous. Every ApplyAction call
// resolves to a consistent state before returning, and the engine does no
// locking of its own; callers mutating the same Game must serialize
// externally (the server holds one mutex per game session).
package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/pokertutor/pokertutor/internal/deck"
	"github.com/pokertutor/pokertutor/internal/evaluator"
)

var (
	// ErrRaiseTooSmall rejects a raise that does not exceed the current
	// bet. The action is refused with no state change.
	ErrRaiseTooSmall = errors.New("game: raise must exceed current bet")

	// ErrNoHandInProgress rejects actions between hands or after game over.
	ErrNoHandInProgress = errors.New("game: no hand in progress")

	// ErrHandInProgress rejects starting the next hand mid-hand.
	ErrHandInProgress = errors.New("game: hand still in progress")

	// ErrUnknownAction rejects action kinds outside fold/call/raise.
	ErrUnknownAction = errors.New("game: unknown action")

	// ErrGameOver rejects progression once the game has ended.
	ErrGameOver = errors.New("game: game is over")
)

const noSeat = -1

// PlayerConfig describes one seat of the table roster.
type PlayerConfig struct {
	Name  string
	Stack int
	Kind  Kind
}

// Config is the table configuration supplied at construction.
type Config struct {
	Players    []PlayerConfig
	SmallBlind int
	BigBlind   int
}

// Game owns the deck, the fixed player roster and all per-hand state.
type Game struct {
	players    []*Player
	deck       *deck.Deck
	smallBlind int
	bigBlind   int

	communityCards []deck.Card
	pot            int
	sidePots       []SidePot
	street         Street
	currentBet     int
	roundBets      map[int]int  // seat -> contribution this street only
	acted          map[int]bool // seats that have acted since the last raise

	dealerPos  int
	sbPos      int
	bbPos      int
	activeSeat int

	eliminated map[int]bool
	history    []StreetHistory

	handInProgress     bool
	waitingForNextHand bool
	gameOver           bool
	lastShowdown       []Winning
}

// Winning is one seat's share of a resolved pot.
type Winning struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

// Option configures a Game at construction.
type Option func(*Game)

// WithRNG sets the RNG used to shuffle the deck, for deterministic hands
// in tests.
func WithRNG(rng *rand.Rand) Option {
	return func(g *Game) {
		g.deck = deck.NewWithRNG(rng)
	}
}

// WithDeck replaces the deck entirely. The deck is still Reset at the
// start of every hand.
func WithDeck(d *deck.Deck) Option {
	return func(g *Game) {
		g.deck = d
	}
}

// New creates a game for a fixed roster. The roster and blinds are
// immutable for the table's lifetime.
func New(cfg Config, opts ...Option) (*Game, error) {
	if len(cfg.Players) < 2 {
		return nil, fmt.Errorf("game: need at least 2 players, got %d", len(cfg.Players))
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= cfg.SmallBlind {
		return nil, fmt.Errorf("game: invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	for _, pc := range cfg.Players {
		if pc.Stack <= 0 {
			return nil, fmt.Errorf("game: player %q must have a positive stack", pc.Name)
		}
	}

	g := &Game{
		smallBlind: cfg.SmallBlind,
		bigBlind:   cfg.BigBlind,
		roundBets:  make(map[int]int),
		acted:      make(map[int]bool),
		eliminated: make(map[int]bool),
		activeSeat: noSeat,
	}
	for i, pc := range cfg.Players {
		g.players = append(g.players, &Player{
			Name:  pc.Name,
			Seat:  i,
			Kind:  pc.Kind,
			Stack: pc.Stack,
		})
	}

	for _, opt := range opts {
		opt(g)
	}
	if g.deck == nil {
		g.deck = deck.New()
	}

	return g, nil
}

// StartHand resets per-hand state, deals hole cards and posts blinds.
func (g *Game) StartHand() error {
	if g.gameOver {
		return ErrGameOver
	}
	if g.handInProgress {
		return ErrHandInProgress
	}
	g.startHand()
	return nil
}

func (g *Game) startHand() {
	g.deck.Reset()
	g.communityCards = nil
	g.pot = 0
	g.sidePots = nil
	g.street = Preflop
	g.currentBet = g.bigBlind
	g.roundBets = make(map[int]int)
	g.acted = make(map[int]bool)
	g.history = []StreetHistory{{Street: Preflop, CommunityCards: []deck.Card{}}}
	g.lastShowdown = nil
	g.waitingForNextHand = false
	g.handInProgress = true

	for seat, p := range g.players {
		if g.eliminated[seat] {
			p.Active = false
			continue
		}
		p.resetForHand()
	}

	// Blind positions walk forward from the dealer, wrapping and skipping
	// eliminated seats. Heads-up this puts the small blind opposite the
	// dealer.
	g.sbPos = g.nextLiveSeat(g.dealerPos + 1)
	g.bbPos = g.nextLiveSeat(g.sbPos + 1)
	g.activeSeat = g.nextLiveSeat(g.bbPos + 1)

	for _, p := range g.players {
		if p.Active {
			p.addHoleCard(g.deck.Draw())
			p.addHoleCard(g.deck.Draw())
		}
	}

	// A short stack posts what it can; the capped amount is what gets
	// recorded so totals stay conserved.
	sbPaid := g.players[g.sbPos].placeBet(g.smallBlind)
	g.pot += sbPaid
	g.roundBets[g.sbPos] = sbPaid
	g.acted[g.sbPos] = true
	g.recordAction(ActionRecord{Seat: g.sbPos, Kind: ActionSmallBlind, Amount: sbPaid})

	bbPaid := g.players[g.bbPos].placeBet(g.bigBlind)
	g.pot += bbPaid
	g.roundBets[g.bbPos] = bbPaid
	g.acted[g.bbPos] = true
	g.recordAction(ActionRecord{Seat: g.bbPos, Kind: ActionBigBlind, Amount: bbPaid})
}

// ApplyAction applies fold, call (a call with nothing to match is a
// check) or raise-to for the active seat, then advances the action. A
// raise not exceeding the current bet is rejected with ErrRaiseTooSmall
// and no state change.
func (g *Game) ApplyAction(kind ActionKind, amount int) error {
	if !g.handInProgress || g.waitingForNextHand || g.gameOver {
		return ErrNoHandInProgress
	}

	seat := g.activeSeat
	p := g.players[seat]

	switch kind {
	case ActionFold:
		p.Active = false
		g.recordAction(ActionRecord{Seat: seat, Kind: ActionFold})

	case ActionCall:
		toCall := g.currentBet - g.roundBets[seat]
		if toCall == 0 {
			g.recordAction(ActionRecord{Seat: seat, Kind: ActionCheck})
		} else {
			paid := p.placeBet(toCall)
			g.pot += paid
			g.roundBets[seat] += paid
			g.recordAction(ActionRecord{Seat: seat, Kind: ActionCall, Amount: paid})
		}

	case ActionRaise:
		if amount <= g.currentBet {
			return ErrRaiseTooSmall
		}
		paid := p.placeBet(amount - g.roundBets[seat])
		g.pot += paid
		g.roundBets[seat] += paid
		g.currentBet = amount
		// A raise reopens the action: every other seat must act again
		// before the street can close.
		g.acted = make(map[int]bool)
		g.recordAction(ActionRecord{Seat: seat, Kind: ActionRaise, Amount: amount})

	default:
		return ErrUnknownAction
	}

	g.acted[seat] = true
	g.advanceAction()
	return nil
}

// advanceAction moves to the next actor, closing the betting round (and
// the hand) when betting is complete.
func (g *Game) advanceAction() {
	if g.countActive() == 1 {
		g.awardUncontested()
		return
	}

	next := g.nextActor(g.activeSeat + 1)

	// The street closes when nobody is left to act, or when every seat
	// that can still act has responded since the last raise and matched
	// the current bet. All-in seats count for neither test, so an all-in
	// caller sitting between the last caller and the raiser cannot hold
	// the round open.
	closing := next == noSeat || (g.allActorsActed() && g.contributionsEven())

	if !closing {
		g.activeSeat = next
		return
	}

	if g.street == River {
		g.showdown()
		return
	}

	g.dealNextStreet()
	g.resetBettingRound()

	if next == noSeat {
		// Run out the remaining streets to showdown.
		g.advanceAllInStreets()
		return
	}
	g.activeSeat = next
}

// advanceAllInStreets deals remaining community cards when no seat can
// act, then resolves the showdown.
func (g *Game) advanceAllInStreets() {
	for g.street != River {
		g.dealNextStreet()
		g.resetBettingRound()
	}
	g.showdown()
}

func (g *Game) dealNextStreet() {
	switch g.street {
	case Preflop:
		for i := 0; i < 3; i++ {
			g.communityCards = append(g.communityCards, g.deck.Draw())
		}
		g.street = Flop
	case Flop:
		g.communityCards = append(g.communityCards, g.deck.Draw())
		g.street = Turn
	case Turn:
		g.communityCards = append(g.communityCards, g.deck.Draw())
		g.street = River
	}

	// Open the street's history entry as soon as the board is dealt, so
	// streets with no actions (all-in runouts) still show their boards.
	board := make([]deck.Card, len(g.communityCards))
	copy(board, g.communityCards)
	g.history = append(g.history, StreetHistory{
		Street:         g.street,
		CommunityCards: board,
	})
}

func (g *Game) resetBettingRound() {
	g.currentBet = 0
	g.roundBets = make(map[int]int)
	g.acted = make(map[int]bool)
}

// awardUncontested pays the whole pot to the last active seat and moves
// straight to the next hand.
func (g *Game) awardUncontested() {
	for seat, p := range g.players {
		if p.Active {
			p.Stack += g.pot
			g.lastShowdown = []Winning{{Seat: seat, Amount: g.pot}}
			break
		}
	}
	g.pot = 0
	g.sidePots = nil
	g.handInProgress = false
	g.startNextHand()
}

// StartNextHand eliminates busted seats and begins the next hand, or ends
// the game when the human is out or one seat remains.
func (g *Game) StartNextHand() error {
	if g.gameOver {
		return ErrGameOver
	}
	if g.handInProgress && !g.waitingForNextHand {
		return ErrHandInProgress
	}
	g.startNextHand()
	return nil
}

func (g *Game) startNextHand() {
	g.waitingForNextHand = false
	g.handInProgress = false

	for seat, p := range g.players {
		if p.Stack == 0 && !g.eliminated[seat] {
			g.eliminated[seat] = true
			p.Active = false
		}
	}

	for seat, p := range g.players {
		if p.Kind == Human && g.eliminated[seat] {
			g.gameOver = true
			return
		}
	}

	if g.countLive() <= 1 {
		g.gameOver = true
		return
	}

	g.dealerPos = g.nextLiveSeat(g.dealerPos + 1)
	g.startHand()
}

// nextLiveSeat returns the first non-eliminated seat at or after from,
// wrapping around the table.
func (g *Game) nextLiveSeat(from int) int {
	n := len(g.players)
	for i := 0; i < n; i++ {
		seat := (from + i) % n
		if !g.eliminated[seat] {
			return seat
		}
	}
	return noSeat
}

// nextActor returns the first seat at or after from that can still act
// this street (in the hand and not all-in), or noSeat.
func (g *Game) nextActor(from int) int {
	n := len(g.players)
	for i := 0; i < n; i++ {
		seat := (from + i) % n
		p := g.players[seat]
		if p.Active && !p.AllIn {
			return seat
		}
	}
	return noSeat
}

func (g *Game) countActive() int {
	count := 0
	for _, p := range g.players {
		if p.Active {
			count++
		}
	}
	return count
}

func (g *Game) countLive() int {
	count := 0
	for seat := range g.players {
		if !g.eliminated[seat] {
			count++
		}
	}
	return count
}

// allActorsActed reports whether every seat that can still act has acted
// this street. All-in seats cannot act and do not count.
func (g *Game) allActorsActed() bool {
	for seat, p := range g.players {
		if p.Active && !p.AllIn && !g.acted[seat] {
			return false
		}
	}
	return true
}

// contributionsEven reports whether all seats that can still act have
// matched each other's street contribution.
func (g *Game) contributionsEven() bool {
	first := true
	var bet int
	for seat, p := range g.players {
		if !p.Active || p.AllIn {
			continue
		}
		if first {
			bet = g.roundBets[seat]
			first = false
		} else if g.roundBets[seat] != bet {
			return false
		}
	}
	return true
}

// showdown evaluates every active hand, splits each pot tier among its
// best eligible hands and leaves the engine waiting for the next hand.
func (g *Game) showdown() {
	if g.anyActiveAllIn() {
		g.sidePots = computeSidePots(g.players)
	}

	type ranked struct {
		seat int
		cat  evaluator.Category
		best []deck.Card
	}
	var hands []ranked
	for seat, p := range g.players {
		if !p.Active {
			continue
		}
		cat, best := evaluator.Evaluate(p.HoleCards, g.communityCards)
		p.HandLabel = cat.String()
		hands = append(hands, ranked{seat: seat, cat: cat, best: best})
	}

	// Side-pot tiers first, then whatever the tiers did not cover as the
	// main pot, open to every active seat. Payouts always sum to the pot.
	pots := make([]SidePot, 0, len(g.sidePots)+1)
	covered := 0
	for _, sp := range g.sidePots {
		pots = append(pots, sp)
		covered += sp.Amount
	}
	if remainder := g.pot - covered; remainder > 0 {
		eligible := make([]int, 0, len(hands))
		for _, h := range hands {
			eligible = append(eligible, h.seat)
		}
		pots = append(pots, SidePot{Amount: remainder, Eligible: eligible})
	}

	var winnings []Winning
	for _, pot := range pots {
		eligible := make(map[int]bool, len(pot.Eligible))
		for _, seat := range pot.Eligible {
			eligible[seat] = true
		}

		var winners []int
		var bestCat evaluator.Category
		var bestFive []deck.Card
		for _, h := range hands {
			if !eligible[h.seat] {
				continue
			}
			if winners == nil {
				winners = []int{h.seat}
				bestCat, bestFive = h.cat, h.best
				continue
			}
			switch evaluator.Compare(h.cat, h.best, bestCat, bestFive) {
			case 1:
				winners = []int{h.seat}
				bestCat, bestFive = h.cat, h.best
			case 0:
				winners = append(winners, h.seat)
			}
		}
		if len(winners) == 0 {
			continue
		}

		// Even split; odd chips go one at a time to the earliest seats in
		// evaluation order.
		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for _, seat := range winners {
			amount := share
			if remainder > 0 {
				amount++
				remainder--
			}
			g.players[seat].Stack += amount
			winnings = append(winnings, Winning{Seat: seat, Amount: amount})
		}
	}

	g.lastShowdown = winnings
	g.pot = 0
	g.sidePots = nil
	g.handInProgress = false
	g.waitingForNextHand = true
}

func (g *Game) anyActiveAllIn() bool {
	for _, p := range g.players {
		if p.Active && p.AllIn {
			return true
		}
	}
	return false
}
