package cards

import (
	"errors"
	"math/rand"
)

// ErrNotEnoughCards is returned when a draw asks for more cards than the deck
// holds. The deck is left untouched in that case.
var ErrNotEnoughCards = errors.New("not enough cards in deck")

// Deck is an ordered stack of card ids, from bottom to top: the id at index 0
// is the bottom card and the id at index len-1 is the top card.
//
// A card id lives in exactly one deck or pile at a time; decks only ever
// exchange ids, they never duplicate them.
type Deck struct {
	ids []CardID
}

// ShuffledDeck creates a deck containing every card in the catalog exactly
// once, in a uniformly random order.
func ShuffledDeck() *Deck {
	ids := AllCardIDs()
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return &Deck{ids: ids}
}

// EmptyDeck creates a deck with no cards in it.
func EmptyDeck() *Deck {
	return &Deck{}
}

func (d *Deck) Size() int {
	return len(d.ids)
}

func (d *Deck) IsEmpty() bool {
	return len(d.ids) == 0
}

// TakeFromTop removes and returns the top amount cards. If the deck holds
// fewer cards than requested it returns ErrNotEnoughCards without mutating
// the deck.
func (d *Deck) TakeFromTop(amount int) ([]CardID, error) {
	if amount < 0 || amount > len(d.ids) {
		return nil, ErrNotEnoughCards
	}
	cut := len(d.ids) - amount
	taken := make([]CardID, amount)
	copy(taken, d.ids[cut:])
	d.ids = d.ids[:cut]
	return taken, nil
}

// TakeAll drains the deck, returning every card it held. Never fails.
func (d *Deck) TakeAll() []CardID {
	taken := d.ids
	d.ids = nil
	return taken
}

// Top returns the top card without removing it. The second return value is
// false when the deck is empty.
func (d *Deck) Top() (CardID, bool) {
	if len(d.ids) == 0 {
		return 0, false
	}
	return d.ids[len(d.ids)-1], true
}

// Push places the given cards on top of the deck, in order.
func (d *Deck) Push(ids ...CardID) {
	d.ids = append(d.ids, ids...)
}

// CardsBottomToTop returns a copy of the deck's cards, bottom first.
func (d *Deck) CardsBottomToTop() []CardID {
	out := make([]CardID, len(d.ids))
	copy(out, d.ids)
	return out
}
