package game

import "sort"

// SidePot is one pot tier. Eligible lists the seats that can win it, in
// ascending seat order.
type SidePot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// computeSidePots slices the pot into tiers from the players' cumulative
// hand contributions.
//
// Tiers are the distinct non-zero contribution totals, ascending. The
// slice for a tier is (tier − previousTier) × (players contributing at
// least tier), which sums to the exact pot because every contribution is
// itself a tier boundary. Folded players' chips are counted into slice
// amounts but folded seats are never eligible. A tier with no eligible
// active seat is dropped here and surfaces as main-pot remainder at
// showdown, so no chips are lost.
func computeSidePots(players []*Player) []SidePot {
	tierSet := make(map[int]bool)
	for _, p := range players {
		if p.HandBet > 0 {
			tierSet[p.HandBet] = true
		}
	}

	tiers := make([]int, 0, len(tierSet))
	for tier := range tierSet {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)

	var pots []SidePot
	prev := 0
	for _, tier := range tiers {
		contributors := 0
		var eligible []int
		for seat, p := range players {
			if p.HandBet >= tier {
				contributors++
				if p.Active {
					eligible = append(eligible, seat)
				}
			}
		}

		amount := (tier - prev) * contributors
		if amount > 0 && len(eligible) > 0 {
			pots = append(pots, SidePot{Amount: amount, Eligible: eligible})
		}
		prev = tier
	}

	return pots
}
