package shithead

import "errors"

// User errors reported back to the caller. None of them leave any state
// change behind.
var (
	ErrLobbyFull          = errors.New("LOBBY_FULL: Lobby is full")
	ErrGameAlreadyStarted = errors.New("GAME_ALREADY_STARTED: The game in this lobby has already started")
	ErrNotOwner           = errors.New("NOT_OWNER: Only the lobby owner can start the game")
	ErrGameNotStarted     = errors.New("GAME_NOT_STARTED: The game hasn't started yet")
	ErrNotInLobby         = errors.New("NOT_IN_LOBBY: Player is not in this lobby")
	ErrNotYourTurn        = errors.New("NOT_YOUR_TURN: It is not your turn")
	ErrNoSuchCard         = errors.New("NO_SUCH_CARD: Card index out of range")
	ErrThreeUpFull        = errors.New("THREE_UP_FULL: Three face up cards are already chosen")
	ErrCardsCanBePlayed   = errors.New("CARDS_CAN_BE_PLAYED: Cards can be played, trash cannot be claimed")
	ErrUnsupportedAction  = errors.New("UNSUPPORTED_ACTION: Playing a card is not supported yet")
)
