package game

// PositionLabel names a seat's table position relative to the dealer
// button. It is a pure function of the three inputs, so renderers and the
// tutor can label seats without engine state.
func PositionLabel(dealerPos, seatCount, seat int) string {
	if seatCount < 2 {
		return ""
	}

	offset := ((seat-dealerPos)%seatCount + seatCount) % seatCount

	// Heads-up the blinds walk forward from the dealer, so the dealer
	// posts the big blind and the other seat the small.
	if seatCount == 2 {
		if offset == 0 {
			return "BB"
		}
		return "SB"
	}

	switch offset {
	case 0:
		return "BTN"
	case 1:
		return "SB"
	case 2:
		return "BB"
	case 3:
		return "UTG"
	}
	if offset == seatCount-1 {
		return "CO"
	}
	return "MP"
}
