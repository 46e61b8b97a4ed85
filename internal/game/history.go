package game

import "github.com/pokertutor/pokertutor/internal/deck"

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river"}[s]
}

// ActionKind tags a hand-history record. Blind posts are recorded like
// actions so the whole hand can be replayed from history alone.
type ActionKind int

const (
	ActionSmallBlind ActionKind = iota
	ActionBigBlind
	ActionFold
	ActionCheck
	ActionCall
	ActionRaise
)

func (a ActionKind) String() string {
	return [...]string{"small_blind", "big_blind", "fold", "check", "call", "raise"}[a]
}

// ActionRecord is one action in the hand history. Amount is the chips
// actually moved for blinds and calls (short posts record the capped
// amount), and the raise-to total for raises.
type ActionRecord struct {
	Seat   int        `json:"seat"`
	Kind   ActionKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
}

// StreetHistory groups the actions of one street with the board as it
// stood when the street began.
type StreetHistory struct {
	Street         Street      `json:"street"`
	CommunityCards []deck.Card `json:"communityCards"`
	Actions        []ActionRecord `json:"actions"`
}

// recordAction appends an action to the current street's history entry.
// Street entries are opened when the street is dealt.
func (g *Game) recordAction(rec ActionRecord) {
	entry := &g.history[len(g.history)-1]
	entry.Actions = append(entry.Actions, rec)
}
