package server

import "github.com/pokertutor/pokertutor/internal/game"

// validStrategies lists the bot strategies the config accepts.
var validStrategies = map[string]bool{
	"call": true,
	"fold": true,
}

// botAction picks a bot's move from a snapshot. "call" is a calling
// station: it matches any bet and checks when it can. "fold" gives up
// whenever facing a bet.
func botAction(strategy string, snap game.Snapshot, seat int) (game.ActionKind, int) {
	toCall := snap.ToCall(seat)

	if strategy == "fold" && toCall > 0 {
		return game.ActionFold, 0
	}
	return game.ActionCall, 0
}
