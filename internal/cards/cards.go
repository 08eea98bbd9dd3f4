package cards

import "fmt"

// JokersAmount is the number of jokers in a single deck.
const JokersAmount = 2

type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const suitsAmount = 4

var suitString = map[Suit]string{
	Spades:   "Spades",
	Hearts:   "Hearts",
	Diamonds: "Diamonds",
	Clubs:    "Clubs",
}

func (s Suit) String() string {
	return suitString[s]
}

// Rank is totally ordered by its numeric value: Two < Three < ... < Ace < Joker.
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Joker
)

var rankString = map[Rank]string{
	Two:   "Two",
	Three: "Three",
	Four:  "Four",
	Five:  "Five",
	Six:   "Six",
	Seven: "Seven",
	Eight: "Eight",
	Nine:  "Nine",
	Ten:   "Ten",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
	Ace:   "Ace",
	Joker: "Joker",
}

func (r Rank) String() string {
	return rankString[r]
}

// CardID identifies a card in the catalog. Ids are stable for the process
// lifetime and only carry equality semantics.
type CardID int

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	if c.Rank == Joker {
		return "Joker"
	}
	return fmt.Sprintf("%s of %s", c.Rank.String(), c.Suit.String())
}

// cardsByID is the catalog of every card, indexed by CardID. Built once at
// process start and never mutated afterwards.
var cardsByID = buildCatalog()

func buildCatalog() []Card {
	var catalog []Card
	for rank := Two; rank <= Joker; rank++ {
		// jokers only come in two suits, every other rank in all four
		suits := suitsAmount
		if rank == Joker {
			suits = JokersAmount
		}
		for suit := Spades; suit < Suit(suits); suit++ {
			catalog = append(catalog, Card{Rank: rank, Suit: suit})
		}
	}
	return catalog
}

// CardsAmount is the total amount of cards in a single deck.
func CardsAmount() int {
	return len(cardsByID)
}

// AllCardIDs returns the ids of every card in the catalog, in a stable order.
func AllCardIDs() []CardID {
	ids := make([]CardID, len(cardsByID))
	for i := range ids {
		ids[i] = CardID(i)
	}
	return ids
}

// CardByID returns the card with the given id. Ids always originate from
// AllCardIDs, so an out of range id is a programming error.
func CardByID(id CardID) Card {
	if id < 0 || int(id) >= len(cardsByID) {
		panic(fmt.Sprintf("card id %d is not in the catalog", id))
	}
	return cardsByID[id]
}
