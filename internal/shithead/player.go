package shithead

import "shithead-server/internal/cards"

// ClientID identifies a connected client. Ids are allocated monotonically by
// the server state and are never reused within a process lifetime.
type ClientID int

// LobbyID identifies a lobby. Allocated the same way as client ids.
type LobbyID int

// Player holds one player's cards within a lobby. All three piles are
// membership collections; their internal order carries no game meaning.
type Player struct {
	Username  string
	Hand      []cards.CardID
	ThreeUp   []cards.CardID
	ThreeDown []cards.CardID
}

// NewPlayer creates a player holding no cards.
func NewPlayer(username string) *Player {
	return &Player{Username: username}
}

// PlayableCards returns the cards this player may play against the given
// effective trash rank, honoring the hand / up / down pile precedence.
func (p *Player) PlayableCards(target cards.Rank) []cards.CardID {
	return cards.PlayableCards(p.Hand, p.ThreeUp, p.ThreeDown, target)
}
