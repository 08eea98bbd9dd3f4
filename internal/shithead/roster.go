package shithead

import (
	"fmt"

	"shithead-server/internal/cards"
)

// Roster is the lobby's player collection, keyed by client id, with an
// explicit turn order kept separately from the map.
//
// Invariant: turnOrder is always a duplicate-free permutation of the map's
// keys. Insertion appends to the order, removal preserves the relative order
// of the remaining players.
type Roster struct {
	playersByID map[ClientID]*Player
	turnOrder   []ClientID
}

func NewRoster() *Roster {
	return &Roster{playersByID: make(map[ClientID]*Player)}
}

// Insert adds a player at the end of the turn order. Inserting an id that is
// already present is not supported; callers check membership first.
func (r *Roster) Insert(id ClientID, player *Player) {
	if _, ok := r.playersByID[id]; ok {
		return
	}
	r.playersByID[id] = player
	r.turnOrder = append(r.turnOrder, id)
}

// Remove deletes a player from both the map and the turn order, returning
// the removed player, or nil if the id was not present.
func (r *Roster) Remove(id ClientID) *Player {
	player, ok := r.playersByID[id]
	if !ok {
		return nil
	}
	delete(r.playersByID, id)
	for i, existing := range r.turnOrder {
		if existing == id {
			r.turnOrder = append(r.turnOrder[:i], r.turnOrder[i+1:]...)
			break
		}
	}
	return player
}

func (r *Roster) Len() int {
	return len(r.turnOrder)
}

func (r *Roster) IsEmpty() bool {
	return len(r.turnOrder) == 0
}

// Get returns the player with the given id, or nil.
func (r *Roster) Get(id ClientID) *Player {
	return r.playersByID[id]
}

// PlayerIDs returns the player ids in turn order.
func (r *Roster) PlayerIDs() []ClientID {
	out := make([]ClientID, len(r.turnOrder))
	copy(out, r.turnOrder)
	return out
}

// NextAfter returns the player immediately following id in the turn order,
// wrapping around to the first. A turn must never outlive its player's
// removal, so an absent id is an unrecoverable invariant violation.
func (r *Roster) NextAfter(id ClientID) ClientID {
	for i, existing := range r.turnOrder {
		if existing == id {
			return r.turnOrder[(i+1)%len(r.turnOrder)]
		}
	}
	panic(fmt.Sprintf("next turn requested after player %d, who is not in the turn order", id))
}

// First returns the first player in the turn order. Never called on an empty
// roster; an empty lobby is destroyed before anyone can ask.
func (r *Roster) First() ClientID {
	if len(r.turnOrder) == 0 {
		panic("first turn requested on an empty roster")
	}
	return r.turnOrder[0]
}

// GiveCards extends the hand of the player with the given id. A missing id
// is a no-op: the player may have disconnected between turn resolution and
// card distribution.
func (r *Roster) GiveCards(id ClientID, ids []cards.CardID) {
	if player, ok := r.playersByID[id]; ok {
		player.Hand = append(player.Hand, ids...)
	}
}
