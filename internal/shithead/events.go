package shithead

import "shithead-server/internal/cards"

// Event is one outbound protocol event produced by a lobby. The transport
// layer wraps it into its wire envelope.
type Event struct {
	Type    string
	Payload any
}

// EventSink receives events addressed to one client. Implementations must
// never block: a slow consumer drops events rather than stalling the lobby.
type EventSink interface {
	Send(event Event)
}

// Event types produced by lobbies.
const (
	EventPlayerJoined  = "player_joined"
	EventPlayerLeft    = "player_left"
	EventOwnerChanged  = "owner_changed"
	EventGameStarted   = "game_started"
	EventDeal          = "deal"
	EventCardHandToUp  = "card_moved_hand_to_up"
	EventCardUpToHand  = "card_moved_up_to_hand"
	EventSelectionDone = "selection_done"
	EventTurn          = "turn"
	EventGiveTrash     = "give_trash"
	EventGameStopped   = "game_stopped"
)

// PlayerInfo is the publicly visible information about a lobby member.
type PlayerInfo struct {
	ID       ClientID `json:"id"`
	Username string   `json:"username"`
}

type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID ClientID `json:"playerId"`
}

type OwnerChangedPayload struct {
	NewOwnerID ClientID `json:"newOwnerId"`
}

// DealPayload is unicast to each player when the game starts. Down cards
// stay hidden even from their owner, only their count is revealed.
type DealPayload struct {
	Hand          []cards.CardID `json:"hand"`
	DownCardCount int            `json:"downCardCount"`
}

type CardMovedPayload struct {
	PlayerID  ClientID `json:"playerId"`
	CardIndex int      `json:"cardIndex"`
}

// SelectionDonePayload announces the end of the selection phase. Players who
// did not finish picking in time appear in AutoCompleted with the up cards
// that were chosen for them.
type SelectionDonePayload struct {
	AutoCompleted map[ClientID][]cards.CardID `json:"autoCompleted"`
}

type TurnPayload struct {
	PlayerID ClientID `json:"playerId"`
}

type GiveTrashPayload struct {
	PlayerID ClientID `json:"playerId"`
}
