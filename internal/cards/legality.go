package cards

import "fmt"

// CanBePlacedOn reports whether a card of rank candidate may be placed on a
// trash whose effective top rank is target.
//
// The target must be an effective rank as computed by EffectiveTrashRank:
// threes are invisible, and tens and jokers burn the trash, so none of these
// can ever be the effective top of a non-empty trash. Querying against them
// is a programming error, not a runtime condition.
func CanBePlacedOn(candidate, target Rank) bool {
	switch target {
	case Two:
		// the reset card, anything goes on it
		return true
	case Seven:
		return candidate <= Seven
	case Three, Ten, Joker:
		panic(fmt.Sprintf("placement legality queried against %s, which can never be the effective top of the trash", target))
	default:
		return candidate >= target
	}
}

// EffectiveTrashRank computes the rank placement checks should run against:
// the rank of the topmost trash card that is not a three. An empty trash, or
// one holding only threes, ranks as Two, meaning any card is legal.
func EffectiveTrashRank(trash *Deck) Rank {
	bottomToTop := trash.CardsBottomToTop()
	for i := len(bottomToTop) - 1; i >= 0; i-- {
		card := CardByID(bottomToTop[i])
		if card.Rank != Three {
			return card.Rank
		}
	}
	return Two
}

// PlayableCards returns the cards the player may play against the given
// effective trash rank.
//
// The source pile follows a strict precedence: while the hand holds cards
// only hand cards are playable, then only the face up cards, and only once
// both are gone the face down cards. Hand and up cards are filtered by
// legality; down cards are played blind and are always eligible.
func PlayableCards(hand, threeUp, threeDown []CardID, target Rank) []CardID {
	if len(hand) > 0 {
		return legalAmong(hand, target)
	}
	if len(threeUp) > 0 {
		return legalAmong(threeUp, target)
	}
	out := make([]CardID, len(threeDown))
	copy(out, threeDown)
	return out
}

func legalAmong(ids []CardID, target Rank) []CardID {
	var out []CardID
	for _, id := range ids {
		if CanBePlacedOn(CardByID(id).Rank, target) {
			out = append(out, id)
		}
	}
	return out
}
