package cards_test

import (
	"slices"
	"testing"

	"shithead-server/internal/cards"
)

func TestCatalogSize(t *testing.T) {
	// thirteen non-joker ranks in four suits plus the jokers
	want := 13*4 + cards.JokersAmount

	if cards.CardsAmount() != want {
		t.Errorf("Catalog should hold %d cards, %d given.", want, cards.CardsAmount())
	}
	if len(cards.AllCardIDs()) != want {
		t.Errorf("AllCardIDs should list %d ids, %d given.", want, len(cards.AllCardIDs()))
	}
}

func TestCatalogStable(t *testing.T) {
	first := cards.AllCardIDs()
	second := cards.AllCardIDs()

	if !slices.Equal(first, second) {
		t.Error("AllCardIDs should enumerate the same ids on every call")
	}

	for _, id := range first {
		if cards.CardByID(id) != cards.CardByID(id) {
			t.Errorf("CardByID(%d) is not stable", id)
		}
	}
}

func TestCatalogJokerSuits(t *testing.T) {
	jokers := 0
	for _, id := range cards.AllCardIDs() {
		if cards.CardByID(id).Rank == cards.Joker {
			jokers++
		}
	}

	if jokers != cards.JokersAmount {
		t.Errorf("Catalog should hold %d jokers, %d given.", cards.JokersAmount, jokers)
	}
}

func TestCardByIDOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CardByID should panic for an id outside the catalog")
		}
	}()

	cards.CardByID(cards.CardID(cards.CardsAmount()))
}

func TestRankOrdering(t *testing.T) {
	order := []cards.Rank{
		cards.Two, cards.Three, cards.Four, cards.Five, cards.Six,
		cards.Seven, cards.Eight, cards.Nine, cards.Ten, cards.Jack,
		cards.Queen, cards.King, cards.Ace, cards.Joker,
	}

	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("Expected %s < %s", order[i-1], order[i])
		}
	}
}
