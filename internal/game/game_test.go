package game

import (
	"testing"

	"github.com/pokertutor/pokertutor/internal/deck"
	"github.com/pokertutor/pokertutor/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(stacks ...int) Config {
	cfg := Config{SmallBlind: 10, BigBlind: 20}
	for i, stack := range stacks {
		kind := Bot
		if i == 0 {
			kind = Human
		}
		cfg.Players = append(cfg.Players, PlayerConfig{
			Name:  []string{"alice", "bob", "carol", "dave"}[i],
			Stack: stack,
			Kind:  kind,
		})
	}
	return cfg
}

func newTestGame(t *testing.T, stacks ...int) *Game {
	t.Helper()
	g, err := New(testConfig(stacks...), WithRNG(randutil.New(1)))
	require.NoError(t, err)
	return g
}

// totalChips sums stacks and pot; it must be invariant across every
// action.
func totalChips(g *Game) int {
	total := g.pot
	for _, p := range g.players {
		total += p.Stack
	}
	return total
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "one player",
			cfg: Config{
				Players:    []PlayerConfig{{Name: "solo", Stack: 100}},
				SmallBlind: 10, BigBlind: 20,
			},
		},
		{
			name: "zero small blind",
			cfg: Config{
				Players: []PlayerConfig{
					{Name: "a", Stack: 100}, {Name: "b", Stack: 100},
				},
				SmallBlind: 0, BigBlind: 20,
			},
		},
		{
			name: "big blind not above small",
			cfg: Config{
				Players: []PlayerConfig{
					{Name: "a", Stack: 100}, {Name: "b", Stack: 100},
				},
				SmallBlind: 20, BigBlind: 20,
			},
		},
		{
			name: "non-positive stack",
			cfg: Config{
				Players: []PlayerConfig{
					{Name: "a", Stack: 0}, {Name: "b", Stack: 100},
				},
				SmallBlind: 10, BigBlind: 20,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestStartHandDealsAndPostsBlinds(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	assert.Equal(t, 30, g.pot)
	assert.Equal(t, 20, g.currentBet)
	assert.Equal(t, Preflop, g.street)

	// Dealer 0, blinds walk forward, action starts after the big blind.
	assert.Equal(t, 1, g.sbPos)
	assert.Equal(t, 2, g.bbPos)
	assert.Equal(t, 0, g.activeSeat)

	for _, p := range g.players {
		assert.Len(t, p.HoleCards, 2)
	}
	assert.Equal(t, 990, g.players[1].Stack)
	assert.Equal(t, 980, g.players[2].Stack)

	// Blind posts are on the record with the amounts actually paid.
	require.Len(t, g.history, 1)
	require.Len(t, g.history[0].Actions, 2)
	assert.Equal(t, ActionRecord{Seat: 1, Kind: ActionSmallBlind, Amount: 10}, g.history[0].Actions[0])
	assert.Equal(t, ActionRecord{Seat: 2, Kind: ActionBigBlind, Amount: 20}, g.history[0].Actions[1])

	assert.Equal(t, 3000, totalChips(g))
}

func TestStartHandTwiceFails(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000)
	require.NoError(t, g.StartHand())
	assert.ErrorIs(t, g.StartHand(), ErrHandInProgress)
}

func TestApplyActionWithoutHandFails(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000)
	assert.ErrorIs(t, g.ApplyAction(ActionCall, 0), ErrNoHandInProgress)
}

func TestShortStackPostsPartialBlind(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 5, 1000)
	require.NoError(t, g.StartHand())

	assert.Equal(t, 25, g.pot)
	assert.True(t, g.players[1].AllIn)
	assert.Equal(t, 0, g.players[1].Stack)
	assert.Equal(t, ActionRecord{Seat: 1, Kind: ActionSmallBlind, Amount: 5}, g.history[0].Actions[0])
	assert.Equal(t, 2005, totalChips(g))
}

func TestRaiseTooSmallRejectedWithoutStateChange(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	before := g.players[0].Stack
	err := g.ApplyAction(ActionRaise, 20) // equal to current bet
	assert.ErrorIs(t, err, ErrRaiseTooSmall)
	assert.Equal(t, before, g.players[0].Stack)
	assert.Equal(t, 0, g.activeSeat)
	assert.Equal(t, 30, g.pot)
}

func TestUnknownActionRejected(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000)
	require.NoError(t, g.StartHand())
	assert.ErrorIs(t, g.ApplyAction(ActionKind(99), 0), ErrUnknownAction)
}

func TestLimpedPreflopClosesOnceContributionsEven(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	// Button calls, small blind completes: everyone has acted (blind posts
	// count) and contributions are level, so the flop comes.
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	assert.Equal(t, Preflop, g.street)
	require.NoError(t, g.ApplyAction(ActionCall, 0))

	assert.Equal(t, Flop, g.street)
	assert.Len(t, g.communityCards, 3)
	assert.Equal(t, 60, g.pot)
	assert.Equal(t, 0, g.currentBet)
	assert.Empty(t, g.roundBets)
	assert.Equal(t, 3000, totalChips(g))
}

func TestRaiseReopensActionAndAggressorCloses(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	require.NoError(t, g.ApplyAction(ActionRaise, 60)) // seat 0 raises
	assert.Equal(t, 1, g.activeSeat)
	require.NoError(t, g.ApplyAction(ActionCall, 0)) // seat 1 calls 50 more
	assert.Equal(t, 2, g.activeSeat)
	require.NoError(t, g.ApplyAction(ActionCall, 0)) // seat 2 calls 40 more

	// Action has returned to the aggressor; betting round is over.
	assert.Equal(t, Flop, g.street)
	assert.Equal(t, 180, g.pot)
	assert.Equal(t, 3000, totalChips(g))
}

func TestFoldToOneAwardsPotAndStartsNextHand(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	require.NoError(t, g.ApplyAction(ActionFold, 0)) // button
	require.NoError(t, g.ApplyAction(ActionFold, 0)) // small blind

	// Big blind took the pot uncontested and the next hand started with
	// the button advanced.
	assert.True(t, g.handInProgress)
	assert.False(t, g.waitingForNextHand)
	assert.Equal(t, 1, g.dealerPos)

	// Seat 2 won 30 with 20 invested, then posted the 10 small blind of
	// the new hand.
	assert.Equal(t, 1000, g.players[2].Stack)
	assert.Equal(t, 3000, totalChips(g))
}

func TestCheckedDownHandReachesShowdown(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	// Limp preflop, check every street down to the river.
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	for street := 0; street < 3; street++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, g.ApplyAction(ActionCall, 0))
		}
	}

	assert.False(t, g.handInProgress)
	assert.True(t, g.waitingForNextHand)
	assert.Len(t, g.communityCards, 5)
	require.NotEmpty(t, g.lastShowdown)

	paid := 0
	for _, w := range g.lastShowdown {
		paid += w.Amount
	}
	assert.Equal(t, 60, paid)
	assert.Equal(t, 0, g.pot)
	assert.Equal(t, 3000, totalChips(g))

	// Every showdown participant gets a readable hand label.
	for _, p := range g.players {
		if p.Active {
			assert.NotEmpty(t, p.HandLabel)
		}
	}
}

func TestAllInShowdownBuildsSidePots(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 100, 100, 300)
	require.NoError(t, g.StartHand())

	require.NoError(t, g.ApplyAction(ActionRaise, 100)) // seat 0 all-in
	require.NoError(t, g.ApplyAction(ActionCall, 0))    // seat 1 all-in
	require.NoError(t, g.ApplyAction(ActionRaise, 300)) // seat 2 all-in over the top

	// No one can act: the board runs out and the hand resolves.
	assert.True(t, g.waitingForNextHand)
	assert.Len(t, g.communityCards, 5)
	assert.Equal(t, 0, g.pot)

	// 500 total: a 300 tier everyone could win plus 200 only the deep
	// stack covered, which comes straight back to seat 2.
	paid := 0
	for _, w := range g.lastShowdown {
		paid += w.Amount
	}
	assert.Equal(t, 500, paid)
	assert.GreaterOrEqual(t, g.players[2].Stack, 200)
	assert.Equal(t, 500, totalChips(g))
}

// TestBetAfterAllInCallerClosesStreet covers the round-closing rule when
// an all-in seat sits between the remaining actors: once every seat that
// can still act has matched the bet, the street must advance even though
// action never reaches the all-in seat again.
func TestBetAfterAllInCallerClosesStreet(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 40)
	require.NoError(t, g.StartHand())
	total := totalChips(g)

	// Limped preflop; the short stack in the big blind has 20 behind.
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.Equal(t, Flop, g.street)

	// Flop: the short stack shoves, both deep stacks call.
	require.NoError(t, g.ApplyAction(ActionRaise, 20)) // seat 2 all-in
	assert.True(t, g.players[2].AllIn)
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.Equal(t, Turn, g.street)

	// Turn: a bet and a call between the two live seats. Seat 2 cannot
	// respond, but the round is complete and the river must come.
	require.NoError(t, g.ApplyAction(ActionRaise, 50))
	require.Equal(t, Turn, g.street)
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.Equal(t, River, g.street)

	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.NoError(t, g.ApplyAction(ActionCall, 0))

	assert.True(t, g.waitingForNextHand)
	assert.Equal(t, 0, g.pot)

	paid := 0
	for _, w := range g.lastShowdown {
		paid += w.Amount
	}
	assert.Equal(t, 220, paid)
	assert.Equal(t, total, totalChips(g))
}

// TestSoleActorBetsIntoAllInAndStreetCloses is the heads-up variant: with
// the only opponent all-in, the lone live seat's bet closes the street
// immediately.
func TestSoleActorBetsIntoAllInAndStreetCloses(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 30)
	require.NoError(t, g.StartHand())
	total := totalChips(g)

	// Heads-up: seat 1 is the small blind and completes.
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.Equal(t, Flop, g.street)

	// Seat 0 bets, seat 1 calls for its last 10.
	require.NoError(t, g.ApplyAction(ActionRaise, 20))
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	assert.True(t, g.players[1].AllIn)
	require.Equal(t, Turn, g.street)

	// A bet nobody can call still closes the round.
	require.NoError(t, g.ApplyAction(ActionRaise, 50))
	require.Equal(t, River, g.street)

	require.NoError(t, g.ApplyAction(ActionCall, 0))
	assert.True(t, g.waitingForNextHand)

	// The short stack can win at most its covered tier; the overbet comes
	// straight back to seat 0.
	for _, w := range g.lastShowdown {
		if w.Seat == 1 {
			assert.LessOrEqual(t, w.Amount, 60)
		}
	}
	assert.Equal(t, total, totalChips(g))
}

// TestAllInRunoutRecordsStreetBoards checks that streets dealt with no
// betting still get history entries carrying their boards.
func TestAllInRunoutRecordsStreetBoards(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 100, 100, 300)
	require.NoError(t, g.StartHand())

	require.NoError(t, g.ApplyAction(ActionRaise, 100))
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	require.NoError(t, g.ApplyAction(ActionRaise, 300))
	require.True(t, g.waitingForNextHand)

	require.Len(t, g.history, 4)
	wantStreets := []Street{Preflop, Flop, Turn, River}
	wantBoard := []int{0, 3, 4, 5}
	for i, entry := range g.history {
		assert.Equal(t, wantStreets[i], entry.Street)
		assert.Len(t, entry.CommunityCards, wantBoard[i])
	}
	for _, entry := range g.history[1:] {
		assert.Empty(t, entry.Actions)
	}
}

func TestShowdownSplitsTieWithOddChip(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000)
	require.NoError(t, g.StartHand())

	// Force a board and identical-strength hole cards, then resolve.
	g.players[0].HoleCards = []deck.Card{
		{Rank: deck.Queen, Suit: deck.Spades}, {Rank: deck.Jack, Suit: deck.Hearts},
	}
	g.players[1].HoleCards = []deck.Card{
		{Rank: deck.Queen, Suit: deck.Diamonds}, {Rank: deck.Jack, Suit: deck.Clubs},
	}
	g.communityCards = []deck.Card{
		{Rank: deck.Ace, Suit: deck.Hearts},
		{Rank: deck.King, Suit: deck.Diamonds},
		{Rank: deck.Seven, Suit: deck.Clubs},
		{Rank: deck.Seven, Suit: deck.Diamonds},
		{Rank: deck.Two, Suit: deck.Spades},
	}
	g.street = River
	g.pot = 45

	g.showdown()

	require.Len(t, g.lastShowdown, 2)
	assert.Equal(t, Winning{Seat: 0, Amount: 23}, g.lastShowdown[0])
	assert.Equal(t, Winning{Seat: 1, Amount: 22}, g.lastShowdown[1])
}

func TestFoldedSeatCannotWinShowdown(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	require.NoError(t, g.ApplyAction(ActionFold, 0)) // button out
	folded := 0

	// Remaining two check the hand down.
	require.NoError(t, g.ApplyAction(ActionCall, 0))
	for street := 0; street < 3; street++ {
		for i := 0; i < 2; i++ {
			require.NoError(t, g.ApplyAction(ActionCall, 0))
		}
	}

	require.True(t, g.waitingForNextHand)
	for _, w := range g.lastShowdown {
		assert.NotEqual(t, folded, w.Seat)
	}
}

func TestStartNextHandEliminatesBustedBot(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	g.players[1].Stack = 0 // busted bot

	require.NoError(t, g.StartNextHand())

	assert.True(t, g.eliminated[1])
	assert.False(t, g.gameOver)
	assert.True(t, g.handInProgress)

	// The busted seat is dealt out entirely.
	assert.Empty(t, g.players[1].HoleCards)
	assert.False(t, g.players[1].Active)
}

func TestGameOverWhenHumanBusts(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	g.players[0].Stack = 0 // the human

	require.NoError(t, g.StartNextHand())
	assert.True(t, g.gameOver)

	assert.ErrorIs(t, g.StartHand(), ErrGameOver)
	assert.ErrorIs(t, g.StartNextHand(), ErrGameOver)
	assert.ErrorIs(t, g.ApplyAction(ActionCall, 0), ErrNoHandInProgress)
}

func TestGameOverWhenOneSeatRemains(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	g.players[1].Stack = 0
	g.players[2].Stack = 0

	require.NoError(t, g.StartNextHand())
	assert.True(t, g.gameOver)
}

// TestChipConservationOverManyHands plays a scripted mix of raises, calls
// and folds for several hands and checks the chip total never drifts.
func TestChipConservationOverManyHands(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 500, 500, 500, 500)
	require.NoError(t, g.StartHand())
	total := totalChips(g)

	step := 0
	for hand := 0; hand < 20 && !g.gameOver; {
		if g.waitingForNextHand {
			require.NoError(t, g.StartNextHand())
			hand++
			continue
		}
		if !g.handInProgress {
			break
		}

		var err error
		switch step % 7 {
		case 2:
			err = g.ApplyAction(ActionRaise, g.currentBet+20)
		case 5:
			err = g.ApplyAction(ActionFold, 0)
		default:
			err = g.ApplyAction(ActionCall, 0)
		}
		if err != nil {
			// A raise can fail when the actor is too short; call instead.
			require.ErrorIs(t, err, ErrRaiseTooSmall)
			require.NoError(t, g.ApplyAction(ActionCall, 0))
		}
		step++

		assert.Equal(t, total, totalChips(g), "chips drifted at step %d", step)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	snap := g.Snapshot()
	require.Len(t, snap.Players, 3)

	snap.Players[0].HoleCards[0] = deck.Card{Rank: deck.Two, Suit: deck.Clubs}
	snap.Players[0].Stack = -1

	fresh := g.Snapshot()
	assert.NotEqual(t, -1, fresh.Players[0].Stack)
}

func TestSnapshotToCall(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 1000, 1000, 1000)
	require.NoError(t, g.StartHand())

	snap := g.Snapshot()
	assert.Equal(t, 20, snap.ToCall(0))
	assert.Equal(t, 10, snap.ToCall(1))
	assert.Equal(t, 0, snap.ToCall(2))
}
